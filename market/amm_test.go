package market

import (
	"errors"
	"testing"

	"vamm-core/fpmath"
)

func TestReservePrice_FlatCurve(t *testing.T) {
	// Equal reserves, peg = 1 unit, zero spreads: mark == peg and
	// bid == ask == mark.
	amm := DefaultTestAMM()

	mark, err := amm.ReservePrice()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mark != fpmath.PricePrecision {
		t.Fatalf("mark = %d, want %d", mark, fpmath.PricePrecision)
	}

	bid, ask, err := amm.BidAskPrice(mark)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid != mark || ask != mark {
		t.Fatalf("zero spreads: bid %d ask %d mark %d should all match", bid, ask, mark)
	}
}

func TestReservePrice_PegScaling(t *testing.T) {
	amm := DefaultTestAMM()
	amm.PegMultiplier = 19_400 * fpmath.PegPrecision // $19,400 peg

	mark, err := amm.ReservePrice()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 19_400 * fpmath.PricePrecision; mark != want {
		t.Fatalf("mark = %d, want %d", mark, want)
	}
}

func TestReservePrice_DepletedReserve(t *testing.T) {
	amm := DefaultTestAMM()
	amm.BaseAssetReserve = 0
	if _, err := amm.ReservePrice(); !errors.Is(err, ErrDepletedReserves) {
		t.Fatalf("expected ErrDepletedReserves, got %v", err)
	}
}

func TestBidAskOrdering(t *testing.T) {
	amm := DefaultTestAMM()
	amm.PegMultiplier = 250 * fpmath.PegPrecision

	spreads := []struct {
		long, short uint32
	}{
		{0, 0},
		{100, 100},
		{2500, 400},
		{0, 975},
	}
	for _, s := range spreads {
		amm.LongSpread = s.long
		amm.ShortSpread = s.short

		mark, err := amm.ReservePrice()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		bid, ask, err := amm.BidAskPrice(mark)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !(bid <= mark && mark <= ask) {
			t.Fatalf("spreads %+v violate bid(%d) <= mark(%d) <= ask(%d)", s, bid, mark, ask)
		}
	}
}

func TestCanLowerK(t *testing.T) {
	amm := DefaultTestAMM()

	amm.BaseAssetAmountWithAMM = int64(amm.SqrtK/4) - 1
	if !amm.CanLowerK() {
		t.Fatal("exposure just under sqrtK/4 should allow lowering k")
	}

	amm.BaseAssetAmountWithAMM = int64(amm.SqrtK / 4)
	if amm.CanLowerK() {
		t.Fatal("exposure at sqrtK/4 must block lowering k")
	}

	amm.BaseAssetAmountWithAMM = -int64(amm.SqrtK/4) - 5
	if amm.CanLowerK() {
		t.Fatal("short exposure past the bound must block lowering k")
	}
}

func TestNetUserPnL(t *testing.T) {
	amm := DefaultTestAMM()
	amm.BaseAssetAmountWithAMM = 2 * int64(fpmath.AmmReservePrecision) // users long 2 base
	amm.QuoteAssetAmount = -150 * int64(fpmath.QuotePrecision)        // paid 150 quote

	// At $100 the 2-base position is worth 200: net pnl = 200 - 150 = 50.
	pnl, err := amm.NetUserPnL(100 * int64(fpmath.PricePrecision))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 50 * int64(fpmath.QuotePrecision); pnl != want {
		t.Fatalf("net pnl = %d, want %d", pnl, want)
	}
}

func TestCalibrateSpreads(t *testing.T) {
	amm := DefaultTestAMM()
	amm.BaseSpread = 500
	amm.MaxSpread = 2000

	if err := amm.CalibrateSpreads(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amm.LongSpread != 250 || amm.ShortSpread != 250 {
		t.Fatalf("flat curve should split base spread evenly, got %d/%d", amm.LongSpread, amm.ShortSpread)
	}

	// Long exposure widens the long side only.
	amm.BaseAssetAmountWithAMM = int64(amm.SqrtK / 100)
	if err := amm.CalibrateSpreads(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amm.LongSpread <= amm.ShortSpread {
		t.Fatalf("long exposure should widen long spread: %d/%d", amm.LongSpread, amm.ShortSpread)
	}

	// The combined spread is capped by MaxSpread.
	if total := uint64(amm.LongSpread) + uint64(amm.ShortSpread); total > uint64(amm.MaxSpread) {
		t.Fatalf("total spread %d exceeds max %d", total, amm.MaxSpread)
	}
}

func TestCalibrateSpreads_MonotonicInMaxSpread(t *testing.T) {
	widths := make([]uint64, 0, 3)
	for _, maxSpread := range []uint32{1000, 5000, 50_000} {
		amm := DefaultTestAMM()
		amm.BaseSpread = 500
		amm.MaxSpread = maxSpread
		amm.BaseAssetAmountWithAMM = int64(amm.SqrtK / 10) // heavy skew
		if err := amm.CalibrateSpreads(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		widths = append(widths, uint64(amm.LongSpread)+uint64(amm.ShortSpread))
	}
	for i := 1; i < len(widths); i++ {
		if widths[i] < widths[i-1] {
			t.Fatalf("spread width should grow with max-spread config: %v", widths)
		}
	}
}
