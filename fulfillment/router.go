package fulfillment

import (
	"fmt"

	"vamm-core/market"
)

// makerMethodCeiling bounds the maker-walk portion of a plan; iteration
// stops once the step count passes it. With the JIT step and the trailing
// AMM step a plan can carry at most MaxPlanMethods steps, which bounds
// worst-case compute per order.
const makerMethodCeiling = 7

// MaxPlanMethods is the hard ceiling on plan length.
const MaxPlanMethods = makerMethodCeiling + 3

// DeterminePerpMethods produces the ordered fulfillment plan for a perp
// taker order.
//
// makers must be pre-sorted by price priority on the taker's crossing
// side. oraclePrice is trusted only when hasOracle is true; without a valid
// oracle no AMM-sourced step is ever emitted, regardless of other flags.
// ammAvailable reflects market status (paused states); the taker's auction
// gates the AMM on top of that.
//
// The AMM's bid/ask is advanced in-pass as makers improve on it: that
// mutation lives entirely in the plan fold and is never written back to the
// AMM snapshot.
func DeterminePerpMethods(
	taker Order,
	makers []MakerInfo,
	amm *market.AMM,
	reservePrice uint64,
	oraclePrice int64,
	hasOracle bool,
	ammAvailable bool,
	slot uint64,
	minAuctionDuration uint64,
	jit JITQuoter,
) ([]Method, error) {
	methods := make([]Method, 0, 8)

	canFillWithAmm := ammAvailable &&
		hasOracle &&
		isAmmAvailableLiquiditySource(taker, minAuctionDuration, slot)

	takerPrice, hasTakerPrice, err := taker.LimitPrice(oraclePrice, hasOracle)
	if err != nil {
		return nil, fmt.Errorf("taker limit price: %w", err)
	}

	makerDirection := taker.Direction.Opposite()

	ammBid, ammAsk, err := amm.BidAskPrice(reservePrice)
	if err != nil {
		return nil, fmt.Errorf("amm bid/ask: %w", err)
	}

	for _, maker := range makers {
		// Market orders always cross.
		if hasTakerPrice && !ordersCross(makerDirection, maker.Price, takerPrice) {
			break
		}

		if canFillWithAmm {
			// If the AMM's current price on the taker's side is better than
			// this maker, capture the price-improvement segment with an AMM
			// step capped at the maker's price, then advance the AMM's
			// effective price for the rest of the pass.
			var makerBetterThanAmm bool
			if taker.Direction == market.Long {
				makerBetterThanAmm = maker.Price <= ammAsk
			} else {
				makerBetterThanAmm = maker.Price >= ammBid
			}
			if !makerBetterThanAmm {
				methods = append(methods, ammMethodWithCap(maker.Price))
				if taker.Direction == market.Long {
					ammAsk = maker.Price
				} else {
					ammBid = maker.Price
				}
			}
		}

		methods = append(methods, matchMethod(maker))

		if len(methods) > makerMethodCeiling-1 {
			break
		}
	}

	// JIT evaluation: the curve quotes explicitly when the taker's flow
	// reduces its exposure and JIT is enabled for the market.
	ammWantsToMake := amm.JITIsActive()
	if taker.Direction == market.Long {
		ammWantsToMake = ammWantsToMake && amm.BaseAssetAmountWithAMM < 0
	} else {
		ammWantsToMake = ammWantsToMake && amm.BaseAssetAmountWithAMM > 0
	}
	if ammWantsToMake && hasOracle && jit != nil {
		jitPrice, jitSize, err := jit.Quote(amm, taker, oraclePrice)
		if err != nil {
			return nil, fmt.Errorf("jit quote: %w", err)
		}
		if jitSize > 0 {
			methods = append(methods, ammMethodSized(jitPrice, jitSize))
		}
	}

	// Trailing segment: if the (possibly advanced) AMM price still crosses
	// the taker, one open-ended AMM step fills the remainder.
	if canFillWithAmm {
		ammPrice := ammAsk
		if makerDirection == market.Long {
			ammPrice = ammBid
		}
		if !hasTakerPrice || ordersCross(makerDirection, ammPrice, takerPrice) {
			methods = append(methods, ammMethod())
		}
	}

	return methods, nil
}

// DetermineSpotMethods is the spot companion: match a maker when one is
// available, then route to the external book unless the taker is
// post-only. Spot instruments have no AMM in this design.
func DetermineSpotMethods(taker Order, makerAvailable, externalBookAvailable bool) []Method {
	methods := make([]Method, 0, 2)
	if makerAvailable {
		methods = append(methods, Method{Kind: KindMatchMaker})
	}
	if !taker.PostOnly && externalBookAvailable {
		methods = append(methods, Method{Kind: KindExternalBook})
	}
	return methods
}
