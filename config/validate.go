package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"vamm-core/fpmath"
	"vamm-core/oracle"
)

// Validate checks the whole config and reports every problem at once.
func Validate(cfg AppConfig) error {
	var err error

	if cfg.Env == "" {
		err = multierr.Append(err, errors.New("env is required"))
	}
	if cfg.Feed.URL == "" {
		err = multierr.Append(err, errors.New("feed.url is required (or VAMM_FEED_URL)"))
	}
	if cfg.Feed.ReconnectMinMs < 0 || cfg.Feed.ReconnectMaxMs < 0 {
		err = multierr.Append(err, errors.New("feed reconnect delays must be >= 0"))
	}
	if cfg.Feed.ReconnectMaxMs > 0 && cfg.Feed.ReconnectMaxMs < cfg.Feed.ReconnectMinMs {
		err = multierr.Append(err, errors.New("feed.reconnectMaxMs must be >= reconnectMinMs"))
	}

	err = multierr.Append(err, validateGuardRails(cfg.GuardRails))

	if len(cfg.Markets) == 0 {
		err = multierr.Append(err, errors.New("markets config is required"))
	}
	for name, mc := range cfg.Markets {
		err = multierr.Append(err, validateMarket(name, mc))
	}
	return err
}

func validateGuardRails(g GuardRailsConfig) error {
	var err error
	if g.SlotsBeforeStaleForAmm <= 0 {
		err = multierr.Append(err, errors.New("guardRails.slotsBeforeStaleForAmm must be > 0"))
	}
	if g.ConfidenceIntervalMaxSize == 0 {
		err = multierr.Append(err, errors.New("guardRails.confidenceIntervalMaxSize must be > 0"))
	}
	if g.TooVolatileRatio <= 0 {
		err = multierr.Append(err, errors.New("guardRails.tooVolatileRatio must be > 0"))
	}
	if g.MarkOracleDivergencePct == 0 || g.MarkOracleDivergencePct > fpmath.BidAskSpreadPrecision {
		err = multierr.Append(err, errors.New("guardRails.markOracleDivergencePct must be in (0, 1e6]"))
	}
	return err
}

func validateMarket(name string, mc MarketConfig) error {
	var err error
	if _, perr := oracle.ParseSource(mc.OracleSource); perr != nil {
		err = multierr.Append(err, fmt.Errorf("market %s: %w", name, perr))
	}
	if _, perr := parseTier(mc.ContractTier); perr != nil {
		err = multierr.Append(err, fmt.Errorf("market %s: %w", name, perr))
	}
	if mc.MarginRatioInitial == 0 {
		err = multierr.Append(err, fmt.Errorf("market %s: marginRatioInitial must be > 0", name))
	}
	if mc.MarginRatioMaintenance == 0 {
		err = multierr.Append(err, fmt.Errorf("market %s: marginRatioMaintenance must be > 0", name))
	}
	if mc.MarginRatioMaintenance >= mc.MarginRatioInitial && mc.MarginRatioInitial > 0 {
		err = multierr.Append(err, fmt.Errorf("market %s: maintenance ratio must be below initial", name))
	}
	if mc.UnrealizedPnlInitialAssetWeight > uint32(fpmath.WeightPrecision) {
		err = multierr.Append(err, fmt.Errorf("market %s: unrealizedPnlInitialAssetWeight above full weight", name))
	}
	if mc.UnrealizedPnlMaintenanceAssetWeight > uint32(fpmath.WeightPrecision) {
		err = multierr.Append(err, fmt.Errorf("market %s: unrealizedPnlMaintenanceAssetWeight above full weight", name))
	}
	if mc.UnrealizedPnlMaxImbalance < 0 {
		err = multierr.Append(err, fmt.Errorf("market %s: unrealizedPnlMaxImbalance must be >= 0", name))
	}
	if mc.MaxSpread == 0 {
		err = multierr.Append(err, fmt.Errorf("market %s: maxSpread must be > 0", name))
	}
	if mc.BaseSpread > mc.MaxSpread {
		err = multierr.Append(err, fmt.Errorf("market %s: baseSpread must not exceed maxSpread", name))
	}
	seeded := mc.BaseAssetReserve != 0 || mc.QuoteAssetReserve != 0 || mc.PegMultiplier != 0
	if seeded && (mc.BaseAssetReserve == 0 || mc.QuoteAssetReserve == 0 || mc.PegMultiplier == 0) {
		err = multierr.Append(err, fmt.Errorf("market %s: curve bootstrap needs all of baseAssetReserve, quoteAssetReserve, pegMultiplier", name))
	}
	return err
}
