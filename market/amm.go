// Package market holds the per-instrument aggregate: the virtual constant-
// product curve, risk parameters, and lifecycle status. All quantities are
// fixed-point integers; see vamm-core/fpmath for the precision constants.
package market

import (
	"errors"
	"fmt"

	"vamm-core/fpmath"
	"vamm-core/oracle"
)

// ErrDepletedReserves is the fatal, unrecoverable market-state error raised
// when pricing against a zero reserve.
var ErrDepletedReserves = errors.New("market: depleted amm reserve")

// Direction is the side of a position or taker order.
type Direction int

const (
	Long Direction = iota
	Short
)

// Opposite returns the crossing side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

func (d Direction) String() string {
	if d == Long {
		return "long"
	}
	return "short"
}

// HistoricalOracleData tracks the last readings accepted from the oracle.
type HistoricalOracleData struct {
	LastOraclePrice       int64
	LastOracleConfPct     uint64
	LastOracleDelay       int64
	LastOraclePriceTWAP   int64
	LastOraclePriceTWAPTs int64
}

// PoolBalance is a fee-pool balance owned by the market.
type PoolBalance struct {
	Balance uint64
}

// AMM is the virtual constant-product reserve curve with an asymmetric
// bid/ask spread. Mutated only by curve-preserving fill application and by
// explicit repeg/resize operations in the surrounding settlement pipeline.
type AMM struct {
	OracleSource         oracle.Source
	HistoricalOracleData HistoricalOracleData

	BaseAssetReserve          uint64 // fpmath.AmmReservePrecision
	QuoteAssetReserve         uint64
	SqrtK                     uint64
	PegMultiplier             uint64 // fpmath.PegPrecision
	ConcentrationCoef         uint64
	MinBaseAssetReserve       uint64
	MaxBaseAssetReserve       uint64
	TerminalQuoteAssetReserve uint64

	// Net base exposure: aggregate user position with the AMM as
	// counterparty. Sign drives JIT willingness and k-resize eligibility.
	BaseAssetAmountWithAMM int64
	BaseAssetAmountLong    int64
	BaseAssetAmountShort   int64
	QuoteAssetAmount       int64

	BaseSpread  uint32 // fpmath.BidAskSpreadPrecision
	LongSpread  uint32
	ShortSpread uint32
	MaxSpread   uint32

	Volume24h            uint64
	LongIntensityCount   uint32
	LongIntensityVolume  uint64
	ShortIntensityCount  uint32
	ShortIntensityVolume uint64
	LastTradeTs          int64

	FeePool        PoolBalance
	OrderStepSize  uint64
	OrderTickSize  uint64
	MinOrderSize   uint64
	JITIntensity   uint8
	LastUpdateSlot uint64
}

// ReservePrice is the synthetic mark price: quote*peg/base. A depleted base
// reserve is a fatal market-state error.
func (a *AMM) ReservePrice() (uint64, error) {
	if a.BaseAssetReserve == 0 {
		return 0, ErrDepletedReserves
	}
	scaled, err := fpmath.MulDivU64(a.QuoteAssetReserve, a.PegMultiplier, fpmath.PegPrecision)
	if err != nil {
		return 0, fmt.Errorf("reserve price numerator: %w", err)
	}
	return fpmath.MulDivU64(scaled, fpmath.PricePrecision, a.BaseAssetReserve)
}

// BidPrice scales the reserve price down by the short spread.
func (a *AMM) BidPrice(reservePrice uint64) (uint64, error) {
	factor, err := fpmath.SubU64(fpmath.BidAskSpreadPrecision, uint64(a.ShortSpread))
	if err != nil {
		return 0, fmt.Errorf("bid spread factor: %w", err)
	}
	return fpmath.MulDivU64(reservePrice, factor, fpmath.BidAskSpreadPrecision)
}

// AskPrice scales the reserve price up by the long spread.
func (a *AMM) AskPrice(reservePrice uint64) (uint64, error) {
	factor, err := fpmath.AddU64(fpmath.BidAskSpreadPrecision, uint64(a.LongSpread))
	if err != nil {
		return 0, fmt.Errorf("ask spread factor: %w", err)
	}
	return fpmath.MulDivU64(reservePrice, factor, fpmath.BidAskSpreadPrecision)
}

// BidAskPrice returns both sides of the AMM quote.
func (a *AMM) BidAskPrice(reservePrice uint64) (uint64, uint64, error) {
	bid, err := a.BidPrice(reservePrice)
	if err != nil {
		return 0, 0, err
	}
	ask, err := a.AskPrice(reservePrice)
	if err != nil {
		return 0, 0, err
	}
	return bid, ask, nil
}

// CanLowerK reports whether the curve may be resized down without starving
// one side of liquidity: |net exposure| must stay under sqrtK/4.
func (a *AMM) CanLowerK() bool {
	return fpmath.AbsI64(a.BaseAssetAmountWithAMM) < a.SqrtK/4
}

// JITIsActive reports whether just-in-time AMM liquidity is enabled.
func (a *AMM) JITIsActive() bool {
	return a.JITIntensity > 0
}

// NetUserPnL values the aggregate unsettled user PnL against the AMM at the
// given oracle price.
func (a *AMM) NetUserPnL(oraclePrice int64) (int64, error) {
	baseValue, err := fpmath.MulDivI64(a.BaseAssetAmountWithAMM, oraclePrice, int64(fpmath.AmmReservePrecision))
	if err != nil {
		return 0, fmt.Errorf("net pnl base value: %w", err)
	}
	return fpmath.AddI64(baseValue, a.QuoteAssetAmount)
}

// OraclePrice reads the market's oracle through the adapter. An
// unrecognized source kind surfaces as the adapter's fatal configuration
// error, never a silent fallback.
func (a *AMM) OraclePrice(adapter oracle.Adapter, slot uint64) (oracle.PriceData, error) {
	return adapter.Price(a.OracleSource, slot)
}

// OracleTWAP reads the time-weighted average price for sources that publish
// one.
func (a *AMM) OracleTWAP(adapter oracle.Adapter) (int64, error) {
	return adapter.TWAP(a.OracleSource)
}
