// Package gateway connects the engine to the external oracle price feed and
// publishes readings into per-market feed stores.
package gateway

import (
	"encoding/json"
	"fmt"

	"vamm-core/oracle"
)

// Frame is the wire envelope of one feed message. The payload shape depends
// on the type tag.
type Frame struct {
	Type   string          `json:"type"`
	Market string          `json:"market"`
	Data   json.RawMessage `json:"data"`
}

type exponentPayload struct {
	Price       int64  `json:"price"`
	Confidence  uint64 `json:"confidence"`
	Exponent    int32  `json:"exponent"`
	TWAP        int64  `json:"twap"`
	PublishSlot uint64 `json:"publish_slot"`
}

type scaledDecimalPayload struct {
	Mantissa       int64  `json:"mantissa"`
	Scale          uint32 `json:"scale"`
	StdDevMantissa int64  `json:"std_dev_mantissa"`
	StdDevScale    uint32 `json:"std_dev_scale"`
	RoundOpenSlot  uint64 `json:"round_open_slot"`
	NumSuccess     uint32 `json:"num_success"`
	MinResults     uint32 `json:"min_results"`
}

// FeedUpdate is one parsed feed message ready to publish into a store.
type FeedUpdate struct {
	Market   string
	Source   oracle.Source
	Exponent oracle.ExponentReading
	Scaled   oracle.ScaledDecimalReading
}

// Publish writes the update into the store.
func (u FeedUpdate) Publish(store *oracle.FeedStore) {
	switch u.Source {
	case oracle.SourceExponent:
		store.SetExponent(u.Exponent)
	case oracle.SourceScaledDecimal:
		store.SetScaledDecimal(u.Scaled)
	}
}

// ParseFrame decodes one raw feed message.
func ParseFrame(raw []byte) (FeedUpdate, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return FeedUpdate{}, fmt.Errorf("decode frame: %w", err)
	}
	if frame.Market == "" {
		return FeedUpdate{}, fmt.Errorf("frame without market tag")
	}

	update := FeedUpdate{Market: frame.Market}
	switch frame.Type {
	case "exponent":
		var p exponentPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return FeedUpdate{}, fmt.Errorf("decode exponent payload: %w", err)
		}
		update.Source = oracle.SourceExponent
		update.Exponent = oracle.ExponentReading{
			Price:       p.Price,
			Confidence:  p.Confidence,
			Exponent:    p.Exponent,
			TWAP:        p.TWAP,
			PublishSlot: p.PublishSlot,
		}
	case "scaled_decimal":
		var p scaledDecimalPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return FeedUpdate{}, fmt.Errorf("decode scaled decimal payload: %w", err)
		}
		update.Source = oracle.SourceScaledDecimal
		update.Scaled = oracle.ScaledDecimalReading{
			Mantissa:       p.Mantissa,
			Scale:          p.Scale,
			StdDevMantissa: p.StdDevMantissa,
			StdDevScale:    p.StdDevScale,
			RoundOpenSlot:  p.RoundOpenSlot,
			NumSuccess:     p.NumSuccess,
			MinResults:     p.MinResults,
		}
	default:
		return FeedUpdate{}, fmt.Errorf("unknown frame type %q", frame.Type)
	}
	return update, nil
}
