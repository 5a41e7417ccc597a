package fpmath

// Precision constants shared by the pricing, risk, and routing packages.
// Every quantity in the engine is a fixed-point integer scaled by one of
// these; there is no floating-point math anywhere in the core.
const (
	// PricePrecision scales oracle and curve prices (1e6 = $1.00 per unit).
	PricePrecision uint64 = 1_000_000
	// QuotePrecision scales quote-asset (settlement) amounts.
	QuotePrecision uint64 = 1_000_000
	// PegPrecision scales the AMM peg multiplier.
	PegPrecision uint64 = 1_000_000
	// AmmReservePrecision scales virtual base reserves and position sizes.
	AmmReservePrecision uint64 = 1_000_000_000
	// BidAskSpreadPrecision scales spreads and spread percentages.
	BidAskSpreadPrecision uint64 = 1_000_000
	// MarginPrecision scales margin ratios (1e4 = 1x leverage).
	MarginPrecision uint64 = 10_000
	// ImfPrecision scales the initial-margin-fraction factor.
	ImfPrecision uint64 = 1_000_000
	// WeightPrecision scales asset weights (1e4 = full unit weight).
	WeightPrecision uint64 = 10_000

	// TwentyFourHours is the rolling-volume window in seconds.
	TwentyFourHours int64 = 24 * 60 * 60
)

// AmmToQuotePrecisionRatio converts base reserve amounts into quote amounts.
const AmmToQuotePrecisionRatio = AmmReservePrecision / QuotePrecision
