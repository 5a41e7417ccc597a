package market

import (
	"fmt"

	"vamm-core/fpmath"
)

// CalibrateSpreads recomputes the long/short spread from the base spread,
// the last oracle confidence, and the curve's inventory skew. The pricing
// core only reads LongSpread/ShortSpread; this is the write side, invoked
// by the settlement pipeline after fills and funding updates.
//
// The side that would grow the AMM's existing exposure is quoted wider. The
// combined spread never exceeds MaxSpread.
func (a *AMM) CalibrateSpreads() error {
	// Half the base spread per side, floored at the oracle confidence so
	// quoting never undercuts oracle uncertainty.
	half := fpmath.MaxU64(uint64(a.BaseSpread)/2, a.HistoricalOracleData.LastOracleConfPct)
	longSpread := half
	shortSpread := half

	if a.SqrtK > 0 && a.BaseAssetAmountWithAMM != 0 {
		skew, err := fpmath.MulDivU64(
			fpmath.AbsI64(a.BaseAssetAmountWithAMM),
			fpmath.BidAskSpreadPrecision,
			a.SqrtK,
		)
		if err != nil {
			return fmt.Errorf("spread skew: %w", err)
		}
		if a.BaseAssetAmountWithAMM > 0 {
			longSpread, err = fpmath.AddU64(longSpread, skew)
		} else {
			shortSpread, err = fpmath.AddU64(shortSpread, skew)
		}
		if err != nil {
			return fmt.Errorf("spread skew add: %w", err)
		}
	}

	total := longSpread + shortSpread
	if maxSpread := uint64(a.MaxSpread); total > maxSpread && total > 0 {
		longSpread, _ = fpmath.MulDivU64(longSpread, maxSpread, total)
		shortSpread, _ = fpmath.MulDivU64(shortSpread, maxSpread, total)
	}

	long32, err := fpmath.CastU64ToU32(longSpread)
	if err != nil {
		return fmt.Errorf("long spread width: %w", err)
	}
	short32, err := fpmath.CastU64ToU32(shortSpread)
	if err != nil {
		return fmt.Errorf("short spread width: %w", err)
	}
	a.LongSpread = long32
	a.ShortSpread = short32
	return nil
}
