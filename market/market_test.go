package market

import (
	"testing"

	"vamm-core/fpmath"
	"vamm-core/risk"
)

func TestMarginRatio_FlatWhenNoImf(t *testing.T) {
	m := DefaultTestMarket()

	// size = 0, imf factor = 0: the configured base ratio comes back
	// unchanged, for both requirement types and any size.
	for _, size := range []uint64{0, fpmath.AmmReservePrecision, 500 * fpmath.AmmReservePrecision} {
		got, err := m.MarginRatio(size, risk.Initial)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != m.MarginRatioInitial {
			t.Fatalf("initial ratio at size %d = %d, want %d", size, got, m.MarginRatioInitial)
		}
		got, err = m.MarginRatio(size, risk.Maintenance)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != m.MarginRatioMaintenance {
			t.Fatalf("maintenance ratio at size %d = %d, want %d", size, got, m.MarginRatioMaintenance)
		}
	}
}

func TestMarginRatio_NonDecreasingInSize(t *testing.T) {
	m := DefaultTestMarket()
	m.ImfFactor = 550 // 0.00055 in imf precision

	var prev uint32
	for _, size := range []uint64{
		0,
		fpmath.AmmReservePrecision,
		100 * fpmath.AmmReservePrecision,
		10_000 * fpmath.AmmReservePrecision,
		1_000_000 * fpmath.AmmReservePrecision,
	} {
		got, err := m.MarginRatio(size, risk.Initial)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < prev {
			t.Fatalf("margin ratio decreased at size %d: %d < %d", size, got, prev)
		}
		if got < m.MarginRatioInitial {
			t.Fatalf("margin ratio %d fell below the configured base %d", got, m.MarginRatioInitial)
		}
		prev = got
	}

	// Never beyond the 1x ceiling for Initial.
	huge, err := m.MarginRatio(1<<50, risk.Initial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uint64(huge) > fpmath.MarginPrecision {
		t.Fatalf("initial ratio %d exceeds 1x ceiling", huge)
	}
}

func TestMarginRatio_MaintenanceCeiling(t *testing.T) {
	m := DefaultTestMarket()
	m.ImfFactor = uint32(fpmath.ImfPrecision) // pathological but legal

	got, err := m.MarginRatio(1<<50, risk.Maintenance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fpmath.MarginPrecision + fpmath.MarginPrecision/10; uint64(got) > want {
		t.Fatalf("maintenance ratio %d exceeds 1.1x ceiling %d", got, want)
	}
}

func TestMarginRatio_Settlement(t *testing.T) {
	m := DefaultTestMarket()
	m.Status = Settlement
	got, err := m.MarginRatio(100*fpmath.AmmReservePrecision, risk.Initial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("settled market should carry no liability weight, got %d", got)
	}
}

func TestUnsettledPnlAssetWeight_LiabilitiesNeverDiscounted(t *testing.T) {
	m := DefaultTestMarket()
	m.UnrealizedPnlImfFactor = 1000
	m.UnrealizedPnlInitialAssetWeight = 8000

	for _, pnl := range []int64{0, -1, -1_000_000_000} {
		for _, mt := range []risk.MarginRequirementType{risk.Initial, risk.Maintenance} {
			got, err := m.UnsettledPnlAssetWeight(pnl, mt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if uint64(got) != fpmath.WeightPrecision {
				t.Fatalf("pnl %d type %s: weight = %d, want full unit", pnl, mt, got)
			}
		}
	}
}

func TestUnsettledPnlAssetWeight_InitialDiscount(t *testing.T) {
	m := DefaultTestMarket()
	m.UnrealizedPnlInitialAssetWeight = 8000 // 0.8
	m.UnrealizedPnlImfFactor = 500_000

	small, err := m.UnsettledPnlAssetWeight(10*int64(fpmath.QuotePrecision), risk.Initial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	large, err := m.UnsettledPnlAssetWeight(10_000_000*int64(fpmath.QuotePrecision), risk.Initial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if small > m.UnrealizedPnlInitialAssetWeight {
		t.Fatalf("weight %d above configured initial weight", small)
	}
	if large >= small {
		t.Fatalf("larger pnl should discount harder: %d >= %d", large, small)
	}
	if uint64(small) > fpmath.WeightPrecision || uint64(large) > fpmath.WeightPrecision {
		t.Fatal("weights must stay within one full unit")
	}
}

func TestUnsettledPnlAssetWeight_MaintenanceFixed(t *testing.T) {
	m := DefaultTestMarket()
	m.UnrealizedPnlMaintenanceAssetWeight = 9000
	m.UnrealizedPnlImfFactor = 10_000 // must not matter for maintenance

	got, err := m.UnsettledPnlAssetWeight(1_000_000*int64(fpmath.QuotePrecision), risk.Maintenance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9000 {
		t.Fatalf("maintenance weight = %d, want 9000", got)
	}
}

func TestUnsettledPnlAssetWeight_ImbalanceScaling(t *testing.T) {
	m := DefaultTestMarket()
	m.UnrealizedPnlInitialAssetWeight = 8000
	m.UnrealizedPnlMaxImbalance = 100 * int64(fpmath.QuotePrecision)

	// Users are net long 4 base paid nothing: net pnl 400 quote at $100,
	// four times the ceiling, so the weight scales down by 4.
	m.Amm.BaseAssetAmountWithAMM = 4 * int64(fpmath.AmmReservePrecision)
	m.Amm.QuoteAssetAmount = 0
	m.Amm.HistoricalOracleData.LastOraclePrice = 100 * int64(fpmath.PricePrecision)

	got, err := m.UnsettledPnlAssetWeight(int64(fpmath.QuotePrecision), risk.Initial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2000 {
		t.Fatalf("imbalanced weight = %d, want 2000", got)
	}

	// Below the ceiling nothing changes.
	m.Amm.BaseAssetAmountWithAMM = 0
	got, err = m.UnsettledPnlAssetWeight(int64(fpmath.QuotePrecision), risk.Initial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 8000 {
		t.Fatalf("balanced weight = %d, want 8000", got)
	}
}

func TestAmmFillsEnabled(t *testing.T) {
	m := DefaultTestMarket()
	cases := map[Status]bool{
		Initialized:    false,
		Active:         true,
		FundingPaused:  true,
		AmmPaused:      false,
		FillPaused:     false,
		WithdrawPaused: true,
		ReduceOnly:     true,
		Settlement:     false,
		Delisted:       false,
	}
	for status, want := range cases {
		m.Status = status
		if got := m.AmmFillsEnabled(); got != want {
			t.Errorf("status %s: AmmFillsEnabled = %v, want %v", status, got, want)
		}
	}
}

func TestIsOperationPaused(t *testing.T) {
	m := DefaultTestMarket()
	if m.IsOperationPaused(OperationAmmFill) {
		t.Fatal("no operation should be paused by default")
	}
	m.PausedOperations = OperationAmmFill | OperationSettlePnl
	if !m.IsOperationPaused(OperationAmmFill) || !m.IsOperationPaused(OperationSettlePnl) {
		t.Fatal("paused operations not reported")
	}
	if m.IsOperationPaused(OperationFill) || m.IsOperationPaused(OperationUpdateFunding) {
		t.Fatal("unpaused operations reported as paused")
	}

	// The amm-fill bit overrides an otherwise permissive status.
	m.Status = Active
	if m.AmmFillsEnabled() {
		t.Fatal("paused amm fills should disable the amm liquidity source")
	}
}

func TestIsActive(t *testing.T) {
	m := DefaultTestMarket()
	if !m.IsActive(1000) {
		t.Fatal("active market with no expiry should be active")
	}
	m.ExpiryTs = 500
	if m.IsActive(1000) {
		t.Fatal("expired market should be inactive")
	}
	m.ExpiryTs = 0
	m.Status = Delisted
	if m.IsActive(1000) {
		t.Fatal("delisted market should be inactive")
	}
}

func TestOpenInterest(t *testing.T) {
	m := DefaultTestMarket()
	m.Amm.BaseAssetAmountLong = 7 * int64(fpmath.AmmReservePrecision)
	m.Amm.BaseAssetAmountShort = -9 * int64(fpmath.AmmReservePrecision)
	if got, want := m.OpenInterest(), 9*fpmath.AmmReservePrecision; got != want {
		t.Fatalf("open interest = %d, want %d", got, want)
	}
}

func TestSanitizeClampDenominator(t *testing.T) {
	if d, ok := TierA.SanitizeClampDenominator(); !ok || d != 10 {
		t.Fatalf("tier A clamp = %d/%v", d, ok)
	}
	if _, ok := TierSpeculative.SanitizeClampDenominator(); ok {
		t.Fatal("speculative tier uses the default band")
	}
}
