package oracle

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"vamm-core/fpmath"
)

var (
	// ErrUnsupportedSource signals a caller-side configuration defect: a
	// market points at an oracle kind this build does not understand. It is
	// fatal to the evaluation, never a silent fallback.
	ErrUnsupportedSource = errors.New("oracle: unsupported source")
	// ErrNoReading is returned before the feed has published anything.
	ErrNoReading = errors.New("oracle: no reading available")
	// ErrNoTWAP is returned for sources that do not publish a TWAP.
	ErrNoTWAP = errors.New("oracle: source has no twap")
)

// Adapter supplies oracle readings to the core, keyed by source kind.
// Implementations must be read-only from the core's perspective.
type Adapter interface {
	// Price returns the latest reading converted to engine precision.
	Price(source Source, slot uint64) (PriceData, error)
	// TWAP returns the time-weighted average price for sources that publish
	// one; ErrNoTWAP otherwise.
	TWAP(source Source) (int64, error)
}

// FeedStore is the in-memory Adapter fed by the gateway websocket client.
// Writers publish whole raw readings; readers convert on demand.
type FeedStore struct {
	mu       sync.RWMutex
	exponent *ExponentReading
	scaled   *ScaledDecimalReading
}

// NewFeedStore returns an empty store.
func NewFeedStore() *FeedStore {
	return &FeedStore{}
}

// SetExponent publishes a new exponent-format reading.
func (s *FeedStore) SetExponent(r ExponentReading) {
	s.mu.Lock()
	s.exponent = &r
	s.mu.Unlock()
}

// SetScaledDecimal publishes a new scaled-decimal reading.
func (s *FeedStore) SetScaledDecimal(r ScaledDecimalReading) {
	s.mu.Lock()
	s.scaled = &r
	s.mu.Unlock()
}

// Price implements Adapter.
func (s *FeedStore) Price(source Source, slot uint64) (PriceData, error) {
	switch source {
	case SourceQuoteAsset:
		// Pegged 1:1 to the settlement asset; nothing external to consult.
		return PriceData{
			Price:                   int64(fpmath.PricePrecision),
			Confidence:              0,
			Delay:                   0,
			HasSufficientDataPoints: true,
		}, nil
	case SourceExponent:
		s.mu.RLock()
		r := s.exponent
		s.mu.RUnlock()
		if r == nil {
			return PriceData{}, ErrNoReading
		}
		return convertExponentReading(*r, slot)
	case SourceScaledDecimal:
		s.mu.RLock()
		r := s.scaled
		s.mu.RUnlock()
		if r == nil {
			return PriceData{}, ErrNoReading
		}
		return convertScaledDecimalReading(*r, slot)
	default:
		return PriceData{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

// TWAP implements Adapter. Only the exponent source publishes one.
func (s *FeedStore) TWAP(source Source) (int64, error) {
	switch source {
	case SourceExponent:
		s.mu.RLock()
		r := s.exponent
		s.mu.RUnlock()
		if r == nil {
			return 0, ErrNoReading
		}
		return scaleExponentValue(r.TWAP, r.Exponent)
	case SourceScaledDecimal, SourceQuoteAsset:
		return 0, ErrNoTWAP
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

func convertExponentReading(r ExponentReading, slot uint64) (PriceData, error) {
	price, err := scaleExponentValue(r.Price, r.Exponent)
	if err != nil {
		return PriceData{}, fmt.Errorf("scale price: %w", err)
	}
	confSigned, err := fpmath.CastU64ToI64(r.Confidence)
	if err != nil {
		return PriceData{}, fmt.Errorf("confidence width: %w", err)
	}
	confScaled, err := scaleExponentValue(confSigned, r.Exponent)
	if err != nil {
		return PriceData{}, fmt.Errorf("scale confidence: %w", err)
	}
	conf, err := fpmath.CastI64ToU64(confScaled)
	if err != nil {
		return PriceData{}, fmt.Errorf("confidence sign: %w", err)
	}
	delay, err := slotDelay(slot, r.PublishSlot)
	if err != nil {
		return PriceData{}, err
	}
	return PriceData{
		Price:                   price,
		Confidence:              conf,
		Delay:                   delay,
		HasSufficientDataPoints: true,
	}, nil
}

func convertScaledDecimalReading(r ScaledDecimalReading, slot uint64) (PriceData, error) {
	price, err := scaleDecimalMantissa(r.Mantissa, r.Scale)
	if err != nil {
		return PriceData{}, fmt.Errorf("scale price: %w", err)
	}

	// A negative std deviation means the aggregator state is unusable;
	// flag it as worst-case confidence so validity rejects the reading.
	var conf uint64
	if r.StdDevMantissa < 0 {
		conf = math.MaxUint64
	} else {
		stdDev, err := scaleDecimalMantissa(r.StdDevMantissa, r.StdDevScale)
		if err != nil {
			return PriceData{}, fmt.Errorf("scale std dev: %w", err)
		}
		// Confidence is floored at 10 bps of the price.
		price10bps := fpmath.AbsI64(price) / 1000
		conf = fpmath.MaxU64(uint64(stdDev), price10bps)
	}

	delay, err := slotDelay(slot, r.RoundOpenSlot)
	if err != nil {
		return PriceData{}, err
	}
	return PriceData{
		Price:                   price,
		Confidence:              conf,
		Delay:                   delay,
		HasSufficientDataPoints: r.NumSuccess >= r.MinResults,
	}, nil
}

// scaleExponentValue rebases a mantissa published with a decimal exponent
// into PricePrecision units.
func scaleExponentValue(mantissa int64, exponent int32) (int64, error) {
	precision, err := pow10(absInt32(exponent))
	if err != nil {
		return 0, err
	}
	if precision > fpmath.PricePrecision {
		div, err := fpmath.DivU64(precision, fpmath.PricePrecision)
		if err != nil {
			return 0, err
		}
		return fpmath.DivI64(mantissa, int64(div))
	}
	mult, err := fpmath.DivU64(fpmath.PricePrecision, precision)
	if err != nil {
		return 0, err
	}
	return fpmath.MulI64(mantissa, int64(mult))
}

// scaleDecimalMantissa rebases mantissa/10^scale into PricePrecision units.
func scaleDecimalMantissa(mantissa int64, scale uint32) (int64, error) {
	precision, err := pow10(scale)
	if err != nil {
		return 0, err
	}
	if precision > fpmath.PricePrecision {
		return fpmath.DivI64(mantissa, int64(precision/fpmath.PricePrecision))
	}
	return fpmath.MulI64(mantissa, int64(fpmath.PricePrecision/precision))
}

func slotDelay(slot, publishSlot uint64) (int64, error) {
	now, err := fpmath.CastU64ToI64(slot)
	if err != nil {
		return 0, err
	}
	then, err := fpmath.CastU64ToI64(publishSlot)
	if err != nil {
		return 0, err
	}
	return fpmath.SubI64(now, then)
}

func pow10(exp uint32) (uint64, error) {
	if exp > 18 {
		return 0, fpmath.ErrOverflow
	}
	out := uint64(1)
	for i := uint32(0); i < exp; i++ {
		out *= 10
	}
	return out, nil
}

func absInt32(x int32) uint32 {
	if x >= 0 {
		return uint32(x)
	}
	return uint32(-(int64(x)))
}
