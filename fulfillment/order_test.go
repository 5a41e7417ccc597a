package fulfillment

import (
	"testing"

	"vamm-core/fpmath"
	"vamm-core/market"
)

func TestLimitPrice(t *testing.T) {
	oracle := 100 * int64(fpmath.PricePrecision)

	t.Run("fixed limit", func(t *testing.T) {
		price, ok, err := Order{Price: 42}.LimitPrice(oracle, true)
		if err != nil || !ok || price != 42 {
			t.Fatalf("got %d, %v, %v", price, ok, err)
		}
	})

	t.Run("pure market order has no limit", func(t *testing.T) {
		_, ok, err := Order{}.LimitPrice(oracle, true)
		if err != nil || ok {
			t.Fatalf("expected no limit, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("oracle offset", func(t *testing.T) {
		o := Order{OraclePriceOffset: -int64(fpmath.PricePrecision)}
		price, ok, err := o.LimitPrice(oracle, true)
		if err != nil || !ok {
			t.Fatalf("unexpected: %v %v", ok, err)
		}
		if want := uint64(99 * fpmath.PricePrecision); price != want {
			t.Fatalf("price = %d, want %d", price, want)
		}
	})

	t.Run("oracle offset without oracle fails", func(t *testing.T) {
		o := Order{OraclePriceOffset: 1}
		if _, _, err := o.LimitPrice(0, false); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("offset below zero fails", func(t *testing.T) {
		o := Order{OraclePriceOffset: -2 * oracle}
		if _, _, err := o.LimitPrice(oracle, true); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestAuctionGating(t *testing.T) {
	tests := []struct {
		name        string
		order       Order
		minDuration uint64
		slot        uint64
		want        bool
	}{
		{name: "no auction at all", order: Order{Slot: 10}, slot: 10, want: true},
		{
			name:  "inside own auction",
			order: Order{Slot: 10, AuctionDuration: 5},
			slot:  15,
			want:  false,
		},
		{
			name:  "auction elapsed",
			order: Order{Slot: 10, AuctionDuration: 5},
			slot:  16,
			want:  true,
		},
		{
			name:        "market minimum stretches the window",
			order:       Order{Slot: 10, AuctionDuration: 2},
			minDuration: 20,
			slot:        16,
			want:        false,
		},
		{
			name:  "same slot with auction",
			order: Order{Slot: 10, AuctionDuration: 1},
			slot:  10,
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAmmAvailableLiquiditySource(tt.order, tt.minDuration, tt.slot)
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrdersCross(t *testing.T) {
	// Maker bidding (long) at 100: a sell crosses at or below 100.
	if !ordersCross(market.Long, 100, 99) || !ordersCross(market.Long, 100, 100) {
		t.Fatal("sell at/below maker bid must cross")
	}
	if ordersCross(market.Long, 100, 101) {
		t.Fatal("sell above maker bid must not cross")
	}
	// Maker offering (short) at 100: a buy crosses at or above 100.
	if !ordersCross(market.Short, 100, 101) || !ordersCross(market.Short, 100, 100) {
		t.Fatal("buy at/above maker offer must cross")
	}
	if ordersCross(market.Short, 100, 99) {
		t.Fatal("buy below maker offer must not cross")
	}
}
