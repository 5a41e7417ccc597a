package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vamm-core/config"
	"vamm-core/fpmath"
	"vamm-core/fulfillment"
	"vamm-core/gateway"
	"vamm-core/market"
	"vamm-core/oracle"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *oracle.FeedStore) {
	t.Helper()
	e := New(Config{
		GuardRails:         config.DefaultGuardRails().Rails(),
		MinAuctionDuration: 0,
	}, nil, nil, nil)
	m := market.DefaultTestMarket()
	store := e.RegisterMarket("SOL-PERP", &m)
	return e, store
}

// parReading publishes an exponent reading at the test curve's mark price.
func parReading(store *oracle.FeedStore, slot uint64) {
	store.SetExponent(oracle.ExponentReading{
		Price:       int64(fpmath.PricePrecision),
		Confidence:  100, // well under the 2 percent cap
		Exponent:    -6,
		TWAP:        int64(fpmath.PricePrecision),
		PublishSlot: slot,
	})
}

func TestEvaluateOrder_AmmFillWithValidOracle(t *testing.T) {
	e, store := newTestEvaluator(t)
	parReading(store, 100)

	taker := fulfillment.Order{Direction: market.Long}
	eval, err := e.EvaluateOrder("SOL-PERP", taker, nil, 100, 0)
	require.NoError(t, err)

	assert.True(t, eval.HasOracle)
	assert.False(t, eval.Blocked)
	require.Len(t, eval.Plan, 1)
	assert.Equal(t, fulfillment.KindAMMFill, eval.Plan[0].Kind)
	assert.Equal(t, uint64(fpmath.PricePrecision), eval.ReservePrice)
}

func TestEvaluateOrder_NoReadingBlocksAmm(t *testing.T) {
	e, _ := newTestEvaluator(t)

	taker := fulfillment.Order{Direction: market.Long}
	eval, err := e.EvaluateOrder("SOL-PERP", taker, nil, 100, 0)
	require.NoError(t, err)

	assert.True(t, eval.Blocked)
	assert.False(t, eval.HasOracle)
	assert.Empty(t, eval.Plan)
}

func TestEvaluateOrder_DivergentOracleStillMatchesMakers(t *testing.T) {
	e, store := newTestEvaluator(t)
	// Oracle at 2x the mark: far beyond the 10 percent divergence bound.
	store.SetExponent(oracle.ExponentReading{
		Price:       2 * int64(fpmath.PricePrecision),
		Confidence:  100,
		Exponent:    -6,
		TWAP:        2 * int64(fpmath.PricePrecision),
		PublishSlot: 100,
	})

	maker := fulfillment.MakerInfo{MakerID: uuid.New(), Price: fpmath.PricePrecision * 9 / 10}
	taker := fulfillment.Order{Direction: market.Long, Price: 2 * fpmath.PricePrecision}
	eval, err := e.EvaluateOrder("SOL-PERP", taker, []fulfillment.MakerInfo{maker}, 100, 0)
	require.NoError(t, err)

	assert.True(t, eval.Blocked)
	assert.True(t, eval.OracleStatus.MarkTooDivergent)
	require.Len(t, eval.Plan, 1)
	assert.Equal(t, fulfillment.KindMatchMaker, eval.Plan[0].Kind)
}

func TestEvaluateOrder_UnknownMarket(t *testing.T) {
	e, _ := newTestEvaluator(t)
	_, err := e.EvaluateOrder("BTC-PERP", fulfillment.Order{}, nil, 1, 0)
	require.ErrorIs(t, err, ErrUnknownMarket)
}

func TestEvaluateOrder_RecordsAcceptedReading(t *testing.T) {
	e, store := newTestEvaluator(t)
	parReading(store, 100)

	_, err := e.EvaluateOrder("SOL-PERP", fulfillment.Order{Direction: market.Long}, nil, 100, 0)
	require.NoError(t, err)

	e.mu.RLock()
	entry := e.markets["SOL-PERP"]
	e.mu.RUnlock()
	assert.Equal(t, int64(fpmath.PricePrecision), entry.market.Amm.HistoricalOracleData.LastOraclePrice)
}

func TestPublishRoutesToMarket(t *testing.T) {
	e, _ := newTestEvaluator(t)

	delivered := e.Publish(gateway.FeedUpdate{
		Market: "SOL-PERP",
		Source: oracle.SourceExponent,
		Exponent: oracle.ExponentReading{
			Price:       int64(fpmath.PricePrecision),
			Confidence:  100,
			Exponent:    -6,
			TWAP:        int64(fpmath.PricePrecision),
			PublishSlot: 5,
		},
	})
	assert.True(t, delivered)
	assert.False(t, e.Publish(gateway.FeedUpdate{Market: "ETH-PERP"}))

	eval, err := e.EvaluateOrder("SOL-PERP", fulfillment.Order{Direction: market.Long}, nil, 5, 0)
	require.NoError(t, err)
	assert.True(t, eval.HasOracle)
}

func TestApplyConfigUpdatesMarketParams(t *testing.T) {
	e, _ := newTestEvaluator(t)

	cfg := config.AppConfig{
		GuardRails:  config.DefaultGuardRails(),
		Fulfillment: config.FulfillmentConfig{MinAuctionDuration: 25},
		Markets: map[string]config.MarketConfig{
			"SOL-PERP": {
				OracleSource:           "exponent",
				ContractTier:           "b",
				MarginRatioInitial:     2000,
				MarginRatioMaintenance: 1000,
				MaxSpread:              5000,
			},
			"UNREGISTERED-PERP": {
				OracleSource:           "exponent",
				MarginRatioInitial:     1000,
				MarginRatioMaintenance: 500,
				MaxSpread:              1000,
			},
		},
	}
	require.NoError(t, e.ApplyConfig(cfg))

	e.mu.RLock()
	entry := e.markets["SOL-PERP"]
	minAuction := e.minAuctionDuration
	e.mu.RUnlock()
	assert.Equal(t, uint64(25), minAuction)
	assert.Equal(t, uint32(2000), entry.market.MarginRatioInitial)
	assert.Equal(t, market.TierB, entry.market.ContractTier)
}

func TestQuoteReportsCurvePrices(t *testing.T) {
	e, _ := newTestEvaluator(t)
	mark, bid, ask, err := e.Quote("SOL-PERP")
	require.NoError(t, err)
	assert.Equal(t, uint64(fpmath.PricePrecision), mark)
	assert.LessOrEqual(t, bid, mark)
	assert.GreaterOrEqual(t, ask, mark)

	_, _, _, err = e.Quote("BTC-PERP")
	require.ErrorIs(t, err, ErrUnknownMarket)
}
