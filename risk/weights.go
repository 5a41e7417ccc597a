// Package risk holds the size-dependent margin-ratio and asset-weight
// curves used by the margin system. The functions are pure: all state they
// need arrives as arguments, in fixed-point engine precision.
package risk

import (
	"fmt"

	"vamm-core/fpmath"
)

// MarginRequirementType selects which margin bound a computation targets.
type MarginRequirementType int

const (
	// Initial is the bound for opening or increasing a position.
	Initial MarginRequirementType = iota
	// Maintenance is the bound below which a position is liquidatable.
	Maintenance
)

func (t MarginRequirementType) String() string {
	switch t {
	case Initial:
		return "initial"
	case Maintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// SizePremiumLiabilityWeight grows a liability weight with position size.
//
// With a zero imf factor the configured weight passes through untouched.
// Otherwise the curve is a reduced floor plus a term proportional to
// sqrt(size/1000)*imfFactor, never below the configured weight. precision
// is the unit of the weight being adjusted (margin or spot-weight
// precision).
func SizePremiumLiabilityWeight(size uint64, imfFactor uint32, weight uint32, precision uint64) (uint32, error) {
	if imfFactor == 0 {
		return weight, nil
	}

	sizeSqrt := fpmath.SqrtU64(size/1000 + 1)

	imfDiv := fpmath.MaxU64(1, fpmath.ImfPrecision/uint64(imfFactor))
	floor, err := fpmath.SubU64(uint64(weight), uint64(weight)/imfDiv)
	if err != nil {
		return 0, fmt.Errorf("premium floor: %w", err)
	}

	denom, err := fpmath.DivU64(100_000*fpmath.ImfPrecision, precision)
	if err != nil {
		return 0, fmt.Errorf("premium denominator: %w", err)
	}
	surplus, err := fpmath.MulDivU64(sizeSqrt, uint64(imfFactor), denom)
	if err != nil {
		return 0, fmt.Errorf("premium surplus: %w", err)
	}

	adjusted, err := fpmath.AddU64(floor, surplus)
	if err != nil {
		return 0, fmt.Errorf("premium sum: %w", err)
	}

	out, err := fpmath.CastU64ToU32(fpmath.MaxU64(uint64(weight), adjusted))
	if err != nil {
		return 0, fmt.Errorf("premium width: %w", err)
	}
	return out, nil
}

// SizeDiscountAssetWeight shrinks an asset weight as size grows.
//
// The discounted weight is (1.1 * WeightPrecision) / (1 + sqrt(size)*imf
// scaled), capped at the configured weight. Zero imf factor passes the
// configured weight through.
func SizeDiscountAssetWeight(size uint64, imfFactor uint32, weight uint32) (uint32, error) {
	if imfFactor == 0 || weight == 0 {
		return weight, nil
	}

	sizeSqrt := fpmath.SqrtU64(size/1000 + 1)

	imfTerm, err := fpmath.MulDivU64(sizeSqrt, uint64(imfFactor), 100_000)
	if err != nil {
		return 0, fmt.Errorf("discount imf term: %w", err)
	}
	denom, err := fpmath.AddU64(fpmath.ImfPrecision, imfTerm)
	if err != nil {
		return 0, fmt.Errorf("discount denominator: %w", err)
	}

	numer := fpmath.ImfPrecision + fpmath.ImfPrecision/10
	discounted, err := fpmath.MulDivU64(numer, fpmath.WeightPrecision, denom)
	if err != nil {
		return 0, fmt.Errorf("discount quotient: %w", err)
	}

	out, err := fpmath.CastU64ToU32(fpmath.MinU64(uint64(weight), discounted))
	if err != nil {
		return 0, fmt.Errorf("discount width: %w", err)
	}
	return out, nil
}
