package market

import (
	"fmt"
	"math/big"

	"vamm-core/fpmath"
)

// SwapDirection says which way base reserve moves during a fill.
type SwapDirection int

const (
	// AddBase: taker sells base to the curve, base reserve grows.
	AddBase SwapDirection = iota
	// RemoveBase: taker buys base from the curve, base reserve shrinks.
	RemoveBase
)

// ReservesAfterSwap computes the post-fill reserve pair for a curve-
// preserving swap of baseAmount. The invariant k = base*quote is held
// constant up to one unit of integer rounding, and the slack always favors
// the curve.
func (a *AMM) ReservesAfterSwap(baseAmount uint64, dir SwapDirection) (newBase, newQuote uint64, err error) {
	if a.BaseAssetReserve == 0 || a.QuoteAssetReserve == 0 {
		return 0, 0, ErrDepletedReserves
	}

	k := fpmath.BigMulU64(a.BaseAssetReserve, a.QuoteAssetReserve)

	switch dir {
	case AddBase:
		newBase, err = fpmath.AddU64(a.BaseAssetReserve, baseAmount)
	case RemoveBase:
		newBase, err = fpmath.SubU64(a.BaseAssetReserve, baseAmount)
	default:
		return 0, 0, fmt.Errorf("market: unknown swap direction %d", dir)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("swap base reserve: %w", err)
	}
	if newBase == 0 {
		return 0, 0, ErrDepletedReserves
	}

	// Quote reserve rounds up in both directions: the taker either pays a
	// unit more or receives a unit less, never the reverse.
	quo, rem := new(big.Int).QuoRem(k, new(big.Int).SetUint64(newBase), new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if !quo.IsUint64() {
		return 0, 0, fpmath.ErrCastOverflow
	}
	return newBase, quo.Uint64(), nil
}

// ApplyFill moves the reserves for a taker fill of baseAmount in the given
// direction. This belongs to the settlement pipeline; planning never calls
// it.
func (a *AMM) ApplyFill(baseAmount uint64, taker Direction) error {
	dir := AddBase
	if taker == Long {
		dir = RemoveBase
	}
	newBase, newQuote, err := a.ReservesAfterSwap(baseAmount, dir)
	if err != nil {
		return err
	}
	a.BaseAssetReserve = newBase
	a.QuoteAssetReserve = newQuote
	return nil
}

// rollingSum decays old over the window by the elapsed time and adds delta:
// new = old * max(0, window-elapsed)/window + delta.
func rollingSum(old, delta uint64, elapsed, window int64) (uint64, error) {
	if window <= 0 {
		return 0, fpmath.ErrDivisionByZero
	}
	remaining := window - elapsed
	if remaining < 0 {
		remaining = 0
	}
	decayed, err := fpmath.MulDivU64(old, uint64(remaining), uint64(window))
	if err != nil {
		return 0, err
	}
	return fpmath.AddU64(decayed, delta)
}

// UpdateVolume24h maintains the time-decayed rolling 24h volume and the
// per-direction intensity counters consumed by spread calibration.
func (a *AMM) UpdateVolume24h(quoteAmount uint64, dir Direction, now int64) error {
	elapsed := fpmath.MaxI64(1, now-a.LastTradeTs)

	if err := a.updateIntensity(quoteAmount, dir, elapsed); err != nil {
		return err
	}

	volume, err := rollingSum(a.Volume24h, quoteAmount, elapsed, fpmath.TwentyFourHours)
	if err != nil {
		return fmt.Errorf("rolling volume: %w", err)
	}
	a.Volume24h = volume
	a.LastTradeTs = now
	return nil
}

func (a *AMM) updateIntensity(quoteAmount uint64, dir Direction, elapsed int64) error {
	var longAmount, shortAmount uint64
	var longCount, shortCount uint64
	if dir == Long {
		longAmount, longCount = quoteAmount, 1
	} else {
		shortAmount, shortCount = quoteAmount, 1
	}

	lv, err := rollingSum(a.LongIntensityVolume, longAmount, elapsed, fpmath.TwentyFourHours)
	if err != nil {
		return fmt.Errorf("long intensity volume: %w", err)
	}
	sv, err := rollingSum(a.ShortIntensityVolume, shortAmount, elapsed, fpmath.TwentyFourHours)
	if err != nil {
		return fmt.Errorf("short intensity volume: %w", err)
	}
	lc, err := rollingSum(uint64(a.LongIntensityCount), longCount, elapsed, fpmath.TwentyFourHours)
	if err != nil {
		return fmt.Errorf("long intensity count: %w", err)
	}
	sc, err := rollingSum(uint64(a.ShortIntensityCount), shortCount, elapsed, fpmath.TwentyFourHours)
	if err != nil {
		return fmt.Errorf("short intensity count: %w", err)
	}

	lc32, err := fpmath.CastU64ToU32(lc)
	if err != nil {
		return fmt.Errorf("long intensity width: %w", err)
	}
	sc32, err := fpmath.CastU64ToU32(sc)
	if err != nil {
		return fmt.Errorf("short intensity width: %w", err)
	}

	a.LongIntensityVolume = lv
	a.ShortIntensityVolume = sv
	a.LongIntensityCount = lc32
	a.ShortIntensityCount = sc32
	return nil
}
