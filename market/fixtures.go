package market

import (
	"math"

	"vamm-core/fpmath"
	"vamm-core/oracle"
)

// Test fixtures shared across package tests. Kept in the package proper so
// fulfillment and engine tests can reuse the same curves.

// DefaultTestAMM is a flat curve: equal 100-unit reserves, unit peg, wide
// concentration bounds.
func DefaultTestAMM() AMM {
	reserves := 100 * fpmath.AmmReservePrecision
	return AMM{
		OracleSource:              oracle.SourceExponent,
		BaseAssetReserve:          reserves,
		QuoteAssetReserve:         reserves,
		SqrtK:                     reserves,
		TerminalQuoteAssetReserve: reserves,
		PegMultiplier:             fpmath.PegPrecision,
		MinBaseAssetReserve:       0,
		MaxBaseAssetReserve:       math.MaxUint64,
		OrderStepSize:             1,
		OrderTickSize:             1,
		MaxSpread:                 1000,
		HistoricalOracleData: HistoricalOracleData{
			LastOraclePrice: int64(fpmath.PricePrecision),
		},
	}
}

// DefaultTestMarket wraps DefaultTestAMM with 10x/20x margin ratios.
func DefaultTestMarket() Market {
	return Market{
		Amm:                                 DefaultTestAMM(),
		Status:                              Active,
		ContractType:                        Perpetual,
		ContractTier:                        TierSpeculative,
		MarginRatioInitial:                  1000, // 10x
		MarginRatioMaintenance:              500,  // 20x
		UnrealizedPnlInitialAssetWeight:     uint32(fpmath.WeightPrecision),
		UnrealizedPnlMaintenanceAssetWeight: uint32(fpmath.WeightPrecision),
	}
}
