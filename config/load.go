package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"vamm-core/fpmath"
	"vamm-core/infrastructure/logger"
	"vamm-core/market"
	"vamm-core/oracle"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string                  `yaml:"env"`
	Feed        FeedConfig              `yaml:"feed"`
	GuardRails  GuardRailsConfig        `yaml:"guardRails"`
	Fulfillment FulfillmentConfig       `yaml:"fulfillment"`
	Alerts      AlertConfig             `yaml:"alerts"`
	MetricsAddr string                  `yaml:"metricsAddr"`
	Logging     logger.Config           `yaml:"logging"`
	Markets     map[string]MarketConfig `yaml:"markets"`
}

// FeedConfig points at the oracle price feed.
type FeedConfig struct {
	URL            string `yaml:"url"`
	ReconnectMinMs int    `yaml:"reconnectMinMs"`
	ReconnectMaxMs int    `yaml:"reconnectMaxMs"`
}

// GuardRailsConfig mirrors oracle.GuardRails in config form. Percentages and
// ratios use the on-curve precisions, not floats, so a config value pastes
// straight into the guard math.
type GuardRailsConfig struct {
	SlotsBeforeStaleForAmm    int64  `yaml:"slotsBeforeStaleForAmm"`
	ConfidenceIntervalMaxSize uint64 `yaml:"confidenceIntervalMaxSize"`
	TooVolatileRatio          int64  `yaml:"tooVolatileRatio"`
	MarkOracleDivergencePct   uint64 `yaml:"markOracleDivergencePct"`
}

// Rails converts to the guard's native type.
func (g GuardRailsConfig) Rails() oracle.GuardRails {
	return oracle.GuardRails{
		Validity: oracle.ValidityGuardRails{
			SlotsBeforeStale:          g.SlotsBeforeStaleForAmm,
			ConfidenceIntervalMaxSize: g.ConfidenceIntervalMaxSize,
			TooVolatileRatio:          g.TooVolatileRatio,
		},
		PriceDivergence: oracle.PriceDivergenceGuardRails{
			MarkOracleDivergencePct: g.MarkOracleDivergencePct,
		},
	}
}

type FulfillmentConfig struct {
	MinAuctionDuration uint64 `yaml:"minAuctionDuration"`
}

// AlertConfig controls operator alerting. An empty webhook URL keeps alerts
// in the process log only.
type AlertConfig struct {
	WebhookURL      string `yaml:"webhookURL"`
	ThrottleSeconds int    `yaml:"throttleSeconds"`
}

// MarketConfig carries the per-market risk and curve parameters.
type MarketConfig struct {
	OracleSource string `yaml:"oracleSource"`
	ContractTier string `yaml:"contractTier"`

	MarginRatioInitial     uint32 `yaml:"marginRatioInitial"`
	MarginRatioMaintenance uint32 `yaml:"marginRatioMaintenance"`
	ImfFactor              uint32 `yaml:"imfFactor"`
	UnrealizedPnlImfFactor uint32 `yaml:"unrealizedPnlImfFactor"`

	UnrealizedPnlInitialAssetWeight     uint32 `yaml:"unrealizedPnlInitialAssetWeight"`
	UnrealizedPnlMaintenanceAssetWeight uint32 `yaml:"unrealizedPnlMaintenanceAssetWeight"`
	UnrealizedPnlMaxImbalance           int64  `yaml:"unrealizedPnlMaxImbalance"`

	BaseSpread   uint32 `yaml:"baseSpread"`
	MaxSpread    uint32 `yaml:"maxSpread"`
	JITIntensity uint8  `yaml:"jitIntensity"`

	// Curve bootstrap, fpmath.AmmReservePrecision and fpmath.PegPrecision
	// units. Applied only when all three are set; a running curve is never
	// re-seeded by a reload.
	BaseAssetReserve  uint64 `yaml:"baseAssetReserve"`
	QuoteAssetReserve uint64 `yaml:"quoteAssetReserve"`
	PegMultiplier     uint64 `yaml:"pegMultiplier"`
}

// Apply copies the configured parameters onto a market. Curve reserves are
// runtime state and stay untouched.
func (mc MarketConfig) Apply(m *market.Market) error {
	src, err := oracle.ParseSource(mc.OracleSource)
	if err != nil {
		return err
	}
	tier, err := parseTier(mc.ContractTier)
	if err != nil {
		return err
	}
	m.Amm.OracleSource = src
	m.ContractTier = tier
	m.MarginRatioInitial = mc.MarginRatioInitial
	m.MarginRatioMaintenance = mc.MarginRatioMaintenance
	m.ImfFactor = mc.ImfFactor
	m.UnrealizedPnlImfFactor = mc.UnrealizedPnlImfFactor
	m.UnrealizedPnlInitialAssetWeight = mc.UnrealizedPnlInitialAssetWeight
	m.UnrealizedPnlMaintenanceAssetWeight = mc.UnrealizedPnlMaintenanceAssetWeight
	m.UnrealizedPnlMaxImbalance = mc.UnrealizedPnlMaxImbalance
	m.Amm.BaseSpread = mc.BaseSpread
	m.Amm.MaxSpread = mc.MaxSpread
	m.Amm.JITIntensity = mc.JITIntensity
	return nil
}

// Bootstrap seeds an empty curve from the configured reserves. It refuses
// to touch a curve that already holds state.
func (mc MarketConfig) Bootstrap(m *market.Market) error {
	if mc.BaseAssetReserve == 0 || mc.QuoteAssetReserve == 0 || mc.PegMultiplier == 0 {
		return fmt.Errorf("curve bootstrap requires baseAssetReserve, quoteAssetReserve and pegMultiplier")
	}
	if m.Amm.BaseAssetReserve != 0 || m.Amm.QuoteAssetReserve != 0 {
		return fmt.Errorf("curve already seeded")
	}
	root, err := fpmath.SqrtBig(fpmath.BigMulU64(mc.BaseAssetReserve, mc.QuoteAssetReserve))
	if err != nil {
		return fmt.Errorf("curve sqrt k: %w", err)
	}
	if !root.IsUint64() {
		return fmt.Errorf("curve sqrt k: %w", fpmath.ErrCastOverflow)
	}
	sqrtK := root.Uint64()
	m.Amm.BaseAssetReserve = mc.BaseAssetReserve
	m.Amm.QuoteAssetReserve = mc.QuoteAssetReserve
	m.Amm.TerminalQuoteAssetReserve = mc.QuoteAssetReserve
	m.Amm.SqrtK = sqrtK
	m.Amm.PegMultiplier = mc.PegMultiplier
	m.Amm.MaxBaseAssetReserve = math.MaxUint64
	return nil
}

func parseTier(s string) (market.ContractTier, error) {
	switch s {
	case "a":
		return market.TierA, nil
	case "b":
		return market.TierB, nil
	case "c":
		return market.TierC, nil
	case "speculative", "":
		return market.TierSpeculative, nil
	case "isolated":
		return market.TierIsolated, nil
	default:
		return 0, fmt.Errorf("unknown contract tier %q", s)
	}
}

// DefaultGuardRails matches the protocol defaults: 10 minute staleness at
// 400ms slots, 2 percent confidence cap, 5x volatility ratio, 10 percent
// mark-oracle divergence.
func DefaultGuardRails() GuardRailsConfig {
	return GuardRailsConfig{
		SlotsBeforeStaleForAmm:    1500,
		ConfidenceIntervalMaxSize: fpmath.BidAskSpreadPrecision / 50,
		TooVolatileRatio:          5,
		MarkOracleDivergencePct:   fpmath.BidAskSpreadPrecision / 10,
	}
}

// Load reads YAML config from path and applies validation.
func Load(path string) (AppConfig, error) {
	cfg := AppConfig{
		GuardRails: DefaultGuardRails(),
		Logging:    logger.DefaultConfig(),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific fields
// from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("VAMM_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("VAMM_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	return cfg, Validate(cfg)
}
