package ubi

import "math/big"

// Period lengths expressed in ledger heights.
const (
	MonthlyPeriod uint64 = 4320
	WeeklyPeriod  uint64 = 1008
	DailyPeriod   uint64 = 144
)

const (
	// MinVerifierStake is locked in platform custody when a verifier registers.
	MinVerifierStake uint64 = 1_000_000
	// MinFundContribution is the smallest accepted funding contribution.
	MinFundContribution uint64 = 100_000
	// PlatformFeeBps is recorded in the globals record; no transfer charges it.
	PlatformFeeBps uint64 = 250

	MaxDependencyScore   = 100
	MaxPreferredPrograms = 5

	MaxRegionLength   = 50
	MaxNameLength     = 100
	MaxCriteriaLength = 200

	initialScore = 100
)

func minVerifierStake() *big.Int { return new(big.Int).SetUint64(MinVerifierStake) }

func minFundContribution() *big.Int { return new(big.Int).SetUint64(MinFundContribution) }
