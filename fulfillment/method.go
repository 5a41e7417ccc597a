package fulfillment

import "github.com/google/uuid"

// MethodKind is the counterparty class of one fulfillment step.
type MethodKind int

const (
	// KindAMMFill fills against the virtual curve, optionally capped in
	// price and/or size.
	KindAMMFill MethodKind = iota
	// KindMatchMaker matches one resting maker order.
	KindMatchMaker
	// KindExternalBook routes to an external order-book integration
	// (spot only).
	KindExternalBook
)

func (k MethodKind) String() string {
	switch k {
	case KindAMMFill:
		return "amm_fill"
	case KindMatchMaker:
		return "match_maker"
	case KindExternalBook:
		return "external_book"
	default:
		return "unknown"
	}
}

// MakerInfo identifies one resting maker order, pre-sorted by price
// priority on the taker's crossing side.
type MakerInfo struct {
	MakerID    uuid.UUID
	OrderIndex uint16
	Price      uint64
}

// Method is one step of a fulfillment plan.
type Method struct {
	Kind MethodKind

	// AMM steps: optional price cap and size cap. An open-ended AMM step
	// (no caps) means "fill the remainder at the prevailing curve price".
	Price    uint64
	HasPrice bool
	Size     uint64
	HasSize  bool

	// Maker steps.
	MakerID         uuid.UUID
	MakerOrderIndex uint16
}

func ammMethod() Method {
	return Method{Kind: KindAMMFill}
}

func ammMethodWithCap(priceCap uint64) Method {
	return Method{Kind: KindAMMFill, Price: priceCap, HasPrice: true}
}

func ammMethodSized(price, size uint64) Method {
	return Method{Kind: KindAMMFill, Price: price, HasPrice: true, Size: size, HasSize: true}
}

func matchMethod(maker MakerInfo) Method {
	return Method{Kind: KindMatchMaker, MakerID: maker.MakerID, MakerOrderIndex: maker.OrderIndex}
}
