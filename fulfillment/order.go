// Package fulfillment decides, per incoming taker order, the ordered
// sequence of counterparties that should fill it: the AMM, resting maker
// orders, and just-in-time AMM liquidity. It is purely synchronous and
// side-effect free; the plan it produces is applied by the surrounding
// settlement pipeline against the exact snapshot it was computed from.
package fulfillment

import (
	"fmt"

	"vamm-core/fpmath"
	"vamm-core/market"
)

// Order is the taker order under evaluation.
type Order struct {
	Direction market.Direction
	// Price is the limit price in fpmath.PricePrecision units; zero means
	// a pure market order.
	Price uint64
	// OraclePriceOffset, when nonzero, prices the order relative to the
	// oracle instead of a fixed limit.
	OraclePriceOffset int64
	Size              uint64
	// Slot the order was placed in; anchors the auction window.
	Slot            uint64
	AuctionDuration uint64
	PostOnly        bool
	ReduceOnly      bool
}

// LimitPrice resolves the taker's effective limit. ok is false for a pure
// market order (no limit at all). Oracle-offset orders require a valid
// oracle price and fail without one.
func (o Order) LimitPrice(oraclePrice int64, hasOracle bool) (uint64, bool, error) {
	if o.OraclePriceOffset != 0 {
		if !hasOracle {
			return 0, false, fmt.Errorf("fulfillment: oracle-offset order without valid oracle price")
		}
		price, err := fpmath.AddI64(oraclePrice, o.OraclePriceOffset)
		if err != nil {
			return 0, false, fmt.Errorf("oracle offset price: %w", err)
		}
		if price <= 0 {
			return 0, false, fmt.Errorf("fulfillment: oracle-offset price %d not positive", price)
		}
		return uint64(price), true, nil
	}
	if o.Price > 0 {
		return o.Price, true, nil
	}
	return 0, false, nil
}

// isAuctionComplete reports whether the order's auction window has elapsed
// at the given slot. A zero duration means no auction at all.
func isAuctionComplete(orderSlot, auctionDuration, slot uint64) bool {
	if auctionDuration == 0 {
		return true
	}
	if slot <= orderSlot {
		return false
	}
	return slot-orderSlot > auctionDuration
}

// isAmmAvailableLiquiditySource gates AMM fills behind the taker's auction:
// makers get the auction window to themselves before the AMM may
// participate.
func isAmmAvailableLiquiditySource(taker Order, minAuctionDuration uint64, slot uint64) bool {
	duration := fpmath.MaxU64(taker.AuctionDuration, minAuctionDuration)
	return isAuctionComplete(taker.Slot, duration, slot)
}

// ordersCross reports whether a taker at takerPrice crosses a maker quoting
// makerPrice on makerDirection.
func ordersCross(makerDirection market.Direction, makerPrice, takerPrice uint64) bool {
	if makerDirection == market.Long {
		return takerPrice <= makerPrice
	}
	return takerPrice >= makerPrice
}
