// Package oracle validates external price readings and converts raw feed
// payloads into engine-precision prices. It is the single safety gate for
// every oracle-dependent code path.
package oracle

import "fmt"

// Source identifies the structural kind of a market's price oracle.
type Source uint8

const (
	// SourceExponent reads prices published as mantissa plus decimal
	// exponent, with an aggregate confidence interval and a TWAP.
	SourceExponent Source = iota
	// SourceScaledDecimal reads prices published as mantissa plus scale,
	// with a standard-deviation confidence and no TWAP.
	SourceScaledDecimal
	// SourceQuoteAsset is the passthrough kind for assets pegged 1:1 to the
	// settlement asset; no external oracle is consulted.
	SourceQuoteAsset
)

func (s Source) String() string {
	switch s {
	case SourceExponent:
		return "exponent"
	case SourceScaledDecimal:
		return "scaled_decimal"
	case SourceQuoteAsset:
		return "quote_asset"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// ParseSource maps a config string onto a Source kind.
func ParseSource(s string) (Source, error) {
	switch s {
	case "exponent":
		return SourceExponent, nil
	case "scaled_decimal":
		return SourceScaledDecimal, nil
	case "quote_asset":
		return SourceQuoteAsset, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSource, s)
	}
}

// PriceData is one validated-format oracle reading in engine precision.
// Produced fresh per evaluation; read-only to the core.
type PriceData struct {
	Price                   int64  // fpmath.PricePrecision units
	Confidence              uint64 // same units as Price
	Delay                   int64  // slots since the reading was published
	HasSufficientDataPoints bool
}

// ExponentReading is the raw payload of a SourceExponent oracle.
type ExponentReading struct {
	Price       int64 // mantissa
	Confidence  uint64
	Exponent    int32 // decimal exponent, typically negative
	TWAP        int64 // mantissa, same exponent
	PublishSlot uint64
}

// ScaledDecimalReading is the raw payload of a SourceScaledDecimal oracle.
type ScaledDecimalReading struct {
	Mantissa       int64
	Scale          uint32 // price = Mantissa / 10^Scale
	StdDevMantissa int64
	StdDevScale    uint32
	RoundOpenSlot  uint64
	NumSuccess     uint32
	MinResults     uint32
}
