package market

import (
	"fmt"

	"vamm-core/fpmath"
	"vamm-core/risk"
)

// Status is the market lifecycle state. Settlement and Delisted are
// terminal; a market is never deleted.
type Status int

const (
	Initialized Status = iota // warm-up, fills paused
	Active
	FundingPaused
	AmmPaused // amm fills blocked, maker matching still allowed
	FillPaused
	WithdrawPaused
	ReduceOnly
	Settlement
	Delisted
)

func (s Status) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Active:
		return "active"
	case FundingPaused:
		return "funding_paused"
	case AmmPaused:
		return "amm_paused"
	case FillPaused:
		return "fill_paused"
	case WithdrawPaused:
		return "withdraw_paused"
	case ReduceOnly:
		return "reduce_only"
	case Settlement:
		return "settlement"
	case Delisted:
		return "delisted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Operation is one pausable market operation; the market stores the paused
// set as a bitmask.
type Operation uint8

const (
	OperationUpdateFunding Operation = 1 << iota
	OperationAmmFill
	OperationFill
	OperationSettlePnl
)

// ContractType distinguishes perpetual from dated futures.
type ContractType int

const (
	Perpetual ContractType = iota
	Future
)

// ContractTier caps how much insurance a market can claim and how hard its
// TWAP updates are clamped.
type ContractTier int

const (
	TierA ContractTier = iota
	TierB
	TierC
	TierSpeculative
	TierIsolated
)

// SanitizeClampDenominator returns the max TWAP update band for the tier,
// or ok=false for tiers using the default band.
func (t ContractTier) SanitizeClampDenominator() (int64, bool) {
	switch t {
	case TierA:
		return 10, true // 10%
	case TierB:
		return 5, true // 20%
	case TierC:
		return 2, true // 50%
	default:
		return 0, false
	}
}

// Market is the per-instrument aggregate. Created once at listing, mutated
// by the settlement pipeline, and retained forever as a historical record
// once Settlement or Delisted.
type Market struct {
	Amm AMM

	Name        string
	MarketIndex uint16

	Status           Status
	ContractType     ContractType
	ContractTier     ContractTier
	PausedOperations Operation

	MarginRatioInitial     uint32 // fpmath.MarginPrecision
	MarginRatioMaintenance uint32
	ImfFactor              uint32 // fpmath.ImfPrecision

	UnrealizedPnlInitialAssetWeight     uint32 // fpmath.WeightPrecision
	UnrealizedPnlMaintenanceAssetWeight uint32
	UnrealizedPnlImfFactor              uint32
	UnrealizedPnlMaxImbalance           int64

	ExpiryTs      int64
	ExpiryPrice   int64
	NumberOfUsers uint32

	NextFillRecordID        uint64
	NextFundingRateRecordID uint64
	NextCurveRecordID       uint64
}

// IsActive reports whether the market still trades at all.
func (m *Market) IsActive(now int64) bool {
	if m.Status == Settlement || m.Status == Delisted {
		return false
	}
	return m.ExpiryTs == 0 || now < m.ExpiryTs
}

// IsReduceOnly reports whether fills may only reduce liability.
func (m *Market) IsReduceOnly() bool {
	return m.Status == ReduceOnly
}

// IsOperationPaused reports whether a specific operation is paused
// independently of the lifecycle status.
func (m *Market) IsOperationPaused(op Operation) bool {
	return m.PausedOperations&op != 0
}

// AmmFillsEnabled reports whether the AMM may act as a liquidity source.
// Maker-only matching remains possible in states where this is false.
func (m *Market) AmmFillsEnabled() bool {
	if m.IsOperationPaused(OperationAmmFill) {
		return false
	}
	switch m.Status {
	case Active, FundingPaused, WithdrawPaused, ReduceOnly:
		return true
	default:
		return false
	}
}

// OpenInterest is the larger of the aggregate long and short base amounts.
func (m *Market) OpenInterest() uint64 {
	long := fpmath.AbsI64(m.Amm.BaseAssetAmountLong)
	short := fpmath.AbsI64(m.Amm.BaseAssetAmountShort)
	return fpmath.MaxU64(long, short)
}

// MarginRatio returns the margin requirement for a position of the given
// size. The ratio is non-decreasing in size for a positive imf factor and
// equals the configured flat ratio when the imf factor is zero.
func (m *Market) MarginRatio(size uint64, marginType risk.MarginRequirementType) (uint32, error) {
	if m.Status == Settlement {
		return 0, nil // no liability weight on size once settled
	}

	var base uint32
	var ratioMax uint64
	switch marginType {
	case risk.Initial:
		base = m.MarginRatioInitial
		ratioMax = fpmath.MarginPrecision // 1x leverage ceiling
	case risk.Maintenance:
		base = m.MarginRatioMaintenance
		ratioMax = fpmath.MarginPrecision + fpmath.MarginPrecision/10 // 1.1x
	default:
		return 0, fmt.Errorf("market: unknown margin type %d", marginType)
	}

	if m.ImfFactor == 0 {
		return base, nil
	}

	premium, err := risk.SizePremiumLiabilityWeight(size, m.ImfFactor, base, fpmath.MarginPrecision)
	if err != nil {
		return 0, fmt.Errorf("margin size premium: %w", err)
	}

	adjusted := fpmath.MinU64(fpmath.MaxU64(uint64(base), uint64(premium)), ratioMax)
	out, err := fpmath.CastU64ToU32(fpmath.MaxU64(uint64(base), adjusted))
	if err != nil {
		return 0, fmt.Errorf("margin ratio width: %w", err)
	}
	return out, nil
}

// UnsettledPnlAssetWeight returns the collateral discount applied to a
// position's unsettled PnL. Liabilities (pnl <= 0) are never discounted.
func (m *Market) UnsettledPnlAssetWeight(pnl int64, marginType risk.MarginRequirementType) (uint32, error) {
	var weight uint32
	switch marginType {
	case risk.Initial:
		weight = m.UnrealizedPnlInitialAssetWeight
	case risk.Maintenance:
		weight = m.UnrealizedPnlMaintenanceAssetWeight
	default:
		return 0, fmt.Errorf("market: unknown margin type %d", marginType)
	}

	// Imbalance variant: when aggregate net unsettled user PnL exceeds the
	// configured ceiling, scale the initial weight down proportionally.
	if m.ContractType == Perpetual && marginType == risk.Initial && m.UnrealizedPnlMaxImbalance > 0 {
		netPnl, err := m.Amm.NetUserPnL(m.Amm.HistoricalOracleData.LastOraclePrice)
		if err != nil {
			return 0, fmt.Errorf("net user pnl: %w", err)
		}
		if netPnl > m.UnrealizedPnlMaxImbalance {
			scaled, err := fpmath.MulDivU64(uint64(weight), uint64(m.UnrealizedPnlMaxImbalance), fpmath.AbsI64(netPnl))
			if err != nil {
				return 0, fmt.Errorf("imbalance scaling: %w", err)
			}
			weight, err = fpmath.CastU64ToU32(scaled)
			if err != nil {
				return 0, fmt.Errorf("imbalance width: %w", err)
			}
		}
	}

	out := uint64(fpmath.WeightPrecision)
	if pnl > 0 {
		switch marginType {
		case risk.Initial:
			// Convert pnl to a base-asset-equivalent size at the oracle
			// price before walking the discount curve.
			price := fpmath.MaxI64(int64(fpmath.PricePrecision), m.Amm.HistoricalOracleData.LastOraclePrice)
			size, err := fpmath.MulDivI64(pnl, int64(fpmath.PricePrecision), price)
			if err != nil {
				return 0, fmt.Errorf("pnl size conversion: %w", err)
			}
			discounted, err := risk.SizeDiscountAssetWeight(fpmath.AbsI64(size), m.UnrealizedPnlImfFactor, weight)
			if err != nil {
				return 0, fmt.Errorf("pnl size discount: %w", err)
			}
			out = uint64(discounted)
		case risk.Maintenance:
			out = uint64(m.UnrealizedPnlMaintenanceAssetWeight)
		}
	}

	capped, err := fpmath.CastU64ToU32(fpmath.MinU64(fpmath.WeightPrecision, out))
	if err != nil {
		return 0, fmt.Errorf("asset weight width: %w", err)
	}
	return capped, nil
}
