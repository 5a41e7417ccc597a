package oracle

import (
	"fmt"

	"vamm-core/fpmath"
)

// ValidityGuardRails bounds a single oracle reading.
type ValidityGuardRails struct {
	// SlotsBeforeStale is the maximum publish delay, in slots.
	SlotsBeforeStale int64
	// ConfidenceIntervalMaxSize is the maximum confidence-to-price ratio,
	// in fpmath.BidAskSpreadPrecision units.
	ConfidenceIntervalMaxSize uint64
	// TooVolatileRatio flags readings whose price diverges from the last
	// oracle TWAP by more than this multiple (either direction).
	TooVolatileRatio int64
}

// PriceDivergenceGuardRails bounds oracle-versus-mark divergence.
type PriceDivergenceGuardRails struct {
	// MarkOracleDivergencePct is the maximum |oracle-mark| spread, in
	// fpmath.BidAskSpreadPrecision units.
	MarkOracleDivergencePct uint64
}

// GuardRails is the process-wide oracle configuration, immutable per
// evaluation.
type GuardRails struct {
	Validity        ValidityGuardRails
	PriceDivergence PriceDivergenceGuardRails
}

// Status is the outcome of running one reading through the guard rails.
type Status struct {
	PriceData        PriceData
	MarkSpreadPct    int64
	IsValid          bool
	MarkTooDivergent bool
}

// IsOracleValid reports whether a reading is usable. lastTWAP is the
// market's last recorded oracle TWAP, used for the volatility check; pass 0
// to skip it.
func IsOracleValid(data PriceData, lastTWAP int64, rails ValidityGuardRails) (bool, error) {
	if data.Price <= 0 {
		return false, nil
	}
	if !data.HasSufficientDataPoints {
		return false, nil
	}
	if data.Delay > rails.SlotsBeforeStale {
		return false, nil
	}

	if lastTWAP > 0 && rails.TooVolatileRatio > 0 {
		hi := fpmath.MaxI64(data.Price, lastTWAP)
		lo := fpmath.MaxI64(1, minI64(data.Price, lastTWAP))
		ratio, err := fpmath.DivI64(hi, lo)
		if err != nil {
			return false, fmt.Errorf("volatility ratio: %w", err)
		}
		if ratio > rails.TooVolatileRatio {
			return false, nil
		}
	}

	conf := fpmath.MaxU64(1, data.Confidence)
	confPct, err := fpmath.MulDivU64(conf, fpmath.BidAskSpreadPrecision, uint64(data.Price))
	if err != nil {
		return false, fmt.Errorf("confidence pct: %w", err)
	}
	if confPct > rails.ConfidenceIntervalMaxSize {
		return false, nil
	}

	return true, nil
}

// MarkSpreadPct returns (oracle - mark) / mark in spread-precision units.
func MarkSpreadPct(markPrice uint64, oraclePrice int64) (int64, error) {
	mark, err := fpmath.CastU64ToI64(markPrice)
	if err != nil {
		return 0, err
	}
	if mark == 0 {
		return 0, fpmath.ErrDivisionByZero
	}
	spread, err := fpmath.SubI64(oraclePrice, mark)
	if err != nil {
		return 0, err
	}
	return fpmath.MulDivI64(spread, int64(fpmath.BidAskSpreadPrecision), mark)
}

// IsMarkTooDivergent reports whether |spreadPct| exceeds the configured
// divergence bound.
func IsMarkTooDivergent(spreadPct int64, rails PriceDivergenceGuardRails) bool {
	return fpmath.AbsI64(spreadPct) > rails.MarkOracleDivergencePct
}

// GetStatus runs one reading through the full guard: validity plus
// oracle/mark divergence against the supplied mark price.
func GetStatus(markPrice uint64, lastTWAP int64, data PriceData, rails GuardRails) (Status, error) {
	valid, err := IsOracleValid(data, lastTWAP, rails.Validity)
	if err != nil {
		return Status{}, err
	}
	spreadPct, err := MarkSpreadPct(markPrice, data.Price)
	if err != nil {
		return Status{}, err
	}
	return Status{
		PriceData:        data,
		MarkSpreadPct:    spreadPct,
		IsValid:          valid,
		MarkTooDivergent: IsMarkTooDivergent(spreadPct, rails.PriceDivergence),
	}, nil
}

// BlockOperation is the single gate every oracle-consuming path must check:
// true iff the oracle is invalid or too divergent from the mark price.
func BlockOperation(markPrice uint64, lastTWAP int64, data PriceData, rails GuardRails) (bool, error) {
	status, err := GetStatus(markPrice, lastTWAP, data, rails)
	if err != nil {
		return false, err
	}
	return !status.IsValid || status.MarkTooDivergent, nil
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
