// Package engine ties the oracle guard, curve pricing, and fulfillment
// routing together behind one evaluation entry point.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"vamm-core/config"
	"vamm-core/fpmath"
	"vamm-core/fulfillment"
	"vamm-core/gateway"
	"vamm-core/infrastructure/logger"
	"vamm-core/market"
	"vamm-core/monitor"
	"vamm-core/oracle"
)

// ErrUnknownMarket is returned for evaluation requests against a market that
// was never registered.
var ErrUnknownMarket = errors.New("engine: unknown market")

// Config tunes the evaluator.
type Config struct {
	GuardRails         oracle.GuardRails
	MinAuctionDuration uint64
}

// Evaluation is the outcome of routing one taker order.
type Evaluation struct {
	Plan         []fulfillment.Method
	OracleStatus oracle.Status
	HasOracle    bool
	Blocked      bool
	ReservePrice uint64
	Bid          uint64
	Ask          uint64
}

type marketEntry struct {
	mu     sync.Mutex
	market *market.Market
	store  *oracle.FeedStore
}

// Evaluator owns the registered markets and their oracle stores.
type Evaluator struct {
	mu                 sync.RWMutex
	markets            map[string]*marketEntry
	rails              oracle.GuardRails
	minAuctionDuration uint64
	jit                fulfillment.JITQuoter

	log     *logger.Logger
	metrics *monitor.Collector
}

// New builds an evaluator. A nil jit declines every quote.
func New(cfg Config, jit fulfillment.JITQuoter, log *logger.Logger, metrics *monitor.Collector) *Evaluator {
	if jit == nil {
		jit = fulfillment.NoJIT{}
	}
	if metrics == nil {
		metrics = monitor.NewCollector()
	}
	return &Evaluator{
		markets:            make(map[string]*marketEntry),
		rails:              cfg.GuardRails,
		minAuctionDuration: cfg.MinAuctionDuration,
		jit:                jit,
		log:                log,
		metrics:            metrics,
	}
}

// RegisterMarket adds a market and returns the feed store backing its
// oracle. Registering an existing name replaces the market but keeps the
// store so feed state survives.
func (e *Evaluator) RegisterMarket(name string, m *market.Market) *oracle.FeedStore {
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.markets[name]; ok {
		entry.mu.Lock()
		entry.market = m
		entry.mu.Unlock()
		return entry.store
	}
	entry := &marketEntry{market: m, store: oracle.NewFeedStore()}
	e.markets[name] = entry
	return entry.store
}

// Publish implements gateway.StoreRegistry: route a feed update to the
// owning market's store.
func (e *Evaluator) Publish(update gateway.FeedUpdate) bool {
	e.mu.RLock()
	entry, ok := e.markets[update.Market]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	update.Publish(entry.store)
	e.metrics.FeedMessages.WithLabelValues(update.Source.String()).Inc()
	return true
}

// ApplyConfig updates guard rails, auction floor, and per-market risk
// parameters from a (re)loaded config. Unregistered markets in the config
// are ignored; registration is the daemon's call.
func (e *Evaluator) ApplyConfig(cfg config.AppConfig) error {
	e.mu.Lock()
	e.rails = cfg.GuardRails.Rails()
	e.minAuctionDuration = cfg.Fulfillment.MinAuctionDuration
	e.mu.Unlock()

	for name, mc := range cfg.Markets {
		e.mu.RLock()
		entry, ok := e.markets[name]
		e.mu.RUnlock()
		if !ok {
			continue
		}
		entry.mu.Lock()
		err := mc.Apply(entry.market)
		entry.mu.Unlock()
		if err != nil {
			return fmt.Errorf("apply market %s: %w", name, err)
		}
	}
	return nil
}

// EvaluateOrder runs the full pipeline for one perp taker order: oracle
// guard, curve quote, then fulfillment routing. A blocked or missing oracle
// disables AMM liquidity but maker matching proceeds.
func (e *Evaluator) EvaluateOrder(
	marketName string,
	taker fulfillment.Order,
	makers []fulfillment.MakerInfo,
	slot uint64,
	now int64,
) (Evaluation, error) {
	e.mu.RLock()
	entry, ok := e.markets[marketName]
	rails := e.rails
	minAuction := e.minAuctionDuration
	e.mu.RUnlock()
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: %s", ErrUnknownMarket, marketName)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	m := entry.market

	out := Evaluation{}
	reservePrice, err := m.Amm.ReservePrice()
	if err != nil {
		e.countEvaluation(marketName, "error")
		return Evaluation{}, err
	}
	out.ReservePrice = reservePrice
	out.Bid, out.Ask, err = m.Amm.BidAskPrice(reservePrice)
	if err != nil {
		e.countEvaluation(marketName, "error")
		return Evaluation{}, err
	}
	e.metrics.ObserveQuote(marketName, reservePrice, out.Bid, out.Ask)

	data, err := m.Amm.OraclePrice(entry.store, slot)
	switch {
	case err == nil:
		lastTWAP := e.lastTWAP(m, entry.store)
		status, gerr := oracle.GetStatus(reservePrice, lastTWAP, data, rails)
		if gerr != nil {
			e.countEvaluation(marketName, "error")
			return Evaluation{}, gerr
		}
		out.OracleStatus = status
		out.HasOracle = status.IsValid && !status.MarkTooDivergent
		out.Blocked = !out.HasOracle
		if !status.IsValid {
			e.metrics.OracleBlocks.WithLabelValues(marketName, "invalid").Inc()
		} else if status.MarkTooDivergent {
			e.metrics.OracleBlocks.WithLabelValues(marketName, "divergent").Inc()
		}
		if out.HasOracle {
			e.recordOracle(m, status)
		}
	case errors.Is(err, oracle.ErrNoReading):
		out.Blocked = true
		e.metrics.OracleBlocks.WithLabelValues(marketName, "no_reading").Inc()
	default:
		// Unsupported source or conversion failure: configuration defect,
		// fatal to the evaluation.
		e.countEvaluation(marketName, "error")
		return Evaluation{}, err
	}

	ammAvailable := m.AmmFillsEnabled() && m.IsActive(now)
	plan, err := fulfillment.DeterminePerpMethods(
		taker, makers, &m.Amm, reservePrice,
		out.OracleStatus.PriceData.Price, out.HasOracle, ammAvailable,
		slot, minAuction, e.jit,
	)
	if err != nil {
		e.countEvaluation(marketName, "error")
		return Evaluation{}, err
	}
	out.Plan = plan

	result := "ok"
	if out.Blocked {
		result = "blocked"
	}
	e.countEvaluation(marketName, result)
	e.metrics.PlanMethods.Observe(float64(len(plan)))

	if e.log != nil {
		e.log.Debug("order evaluated",
			zap.String("market", marketName),
			zap.String("direction", taker.Direction.String()),
			zap.Int("plan_methods", len(plan)),
			zap.Bool("oracle_blocked", out.Blocked),
		)
	}
	return out, nil
}

// EvaluateSpotOrder routes a spot taker order.
func (e *Evaluator) EvaluateSpotOrder(taker fulfillment.Order, makerAvailable, externalBookAvailable bool) []fulfillment.Method {
	return fulfillment.DetermineSpotMethods(taker, makerAvailable, externalBookAvailable)
}

// Quote returns the current curve prices for a market and refreshes the
// price gauges.
func (e *Evaluator) Quote(marketName string) (mark, bid, ask uint64, err error) {
	e.mu.RLock()
	entry, ok := e.markets[marketName]
	e.mu.RUnlock()
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrUnknownMarket, marketName)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	mark, err = entry.market.Amm.ReservePrice()
	if err != nil {
		return 0, 0, 0, err
	}
	bid, ask, err = entry.market.Amm.BidAskPrice(mark)
	if err != nil {
		return 0, 0, 0, err
	}
	e.metrics.ObserveQuote(marketName, mark, bid, ask)
	return mark, bid, ask, nil
}

// MarketNames lists the registered markets.
func (e *Evaluator) MarketNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.markets))
	for name := range e.markets {
		names = append(names, name)
	}
	return names
}

// lastTWAP prefers the live feed TWAP and falls back to the last recorded
// one for sources that do not publish a TWAP.
func (e *Evaluator) lastTWAP(m *market.Market, store *oracle.FeedStore) int64 {
	twap, err := m.Amm.OracleTWAP(store)
	if err != nil {
		return m.Amm.HistoricalOracleData.LastOraclePriceTWAP
	}
	return twap
}

// recordOracle tracks the last accepted reading on the market, feeding the
// confidence component of spread calibration.
func (e *Evaluator) recordOracle(m *market.Market, status oracle.Status) {
	m.Amm.HistoricalOracleData.LastOraclePrice = status.PriceData.Price
	m.Amm.HistoricalOracleData.LastOracleDelay = status.PriceData.Delay
	if status.PriceData.Price > 0 {
		confPct, err := fpmath.MulDivU64(
			status.PriceData.Confidence,
			fpmath.BidAskSpreadPrecision,
			uint64(status.PriceData.Price),
		)
		if err == nil {
			m.Amm.HistoricalOracleData.LastOracleConfPct = confPct
		}
	}
}

func (e *Evaluator) countEvaluation(marketName, result string) {
	e.metrics.Evaluations.WithLabelValues(marketName, result).Inc()
}
