package ubi

import (
	"fmt"
	"math/big"
)

// VerificationLevel is the ordinal trust tier gating program eligibility.
type VerificationLevel uint8

const (
	LevelUnverified VerificationLevel = iota
	LevelBasic
	LevelVerified
	LevelPremium
)

// Valid reports whether the level is one of the four defined tiers.
func (l VerificationLevel) Valid() bool { return l <= LevelPremium }

func (l VerificationLevel) String() string {
	switch l {
	case LevelUnverified:
		return "unverified"
	case LevelBasic:
		return "basic"
	case LevelVerified:
		return "verified"
	case LevelPremium:
		return "premium"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// DistributionType labels the schedule a claim was paid under.
type DistributionType uint8

const (
	DistributionMonthly DistributionType = iota
	DistributionWeekly
	DistributionEmergency
)

func (d DistributionType) String() string {
	switch d {
	case DistributionMonthly:
		return "monthly"
	case DistributionWeekly:
		return "weekly"
	case DistributionEmergency:
		return "emergency"
	default:
		return fmt.Sprintf("distribution(%d)", uint8(d))
	}
}

// Recipient is a registered beneficiary.
type Recipient struct {
	Address            [20]byte          `json:"address"`
	VerificationLevel  VerificationLevel `json:"verificationLevel"`
	RegistrationHeight uint64            `json:"registrationHeight"`
	LastClaimPeriod    uint64            `json:"lastClaimPeriod"`
	TotalClaimed       *big.Int          `json:"totalClaimed"`
	Active             bool              `json:"active"`
	KYCHash            [32]byte          `json:"kycHash"`
	Region             string            `json:"region"`
	DependencyScore    uint8             `json:"dependencyScore"`
	VerifiedBy         *[20]byte         `json:"verifiedBy,omitempty"`
	VerificationHeight *uint64           `json:"verificationHeight,omitempty"`
}

// Clone returns a deep copy of the recipient.
func (r *Recipient) Clone() *Recipient {
	if r == nil {
		return nil
	}
	clone := *r
	clone.TotalClaimed = cloneBigInt(r.TotalClaimed)
	if r.VerifiedBy != nil {
		by := *r.VerifiedBy
		clone.VerifiedBy = &by
	}
	if r.VerificationHeight != nil {
		height := *r.VerificationHeight
		clone.VerificationHeight = &height
	}
	return &clone
}

// Program is a budgeted distribution schedule.
type Program struct {
	ID                   uint64            `json:"id"`
	Name                 string            `json:"name"`
	MonthlyAmount        *big.Int          `json:"monthlyAmount"`
	TargetRegion         string            `json:"targetRegion"`
	EligibilityCriteria  string            `json:"eligibilityCriteria"`
	TotalBudget          *big.Int          `json:"totalBudget"`
	DistributedAmount    *big.Int          `json:"distributedAmount"`
	StartHeight          uint64            `json:"startHeight"`
	EndHeight            uint64            `json:"endHeight"`
	Active               bool              `json:"active"`
	CreatedBy            [20]byte          `json:"createdBy"`
	RecipientCount       uint64            `json:"recipientCount"`
	VerificationRequired VerificationLevel `json:"verificationRequired"`
}

// Remaining returns the unspent budget.
func (p *Program) Remaining() *big.Int {
	if p == nil {
		return big.NewInt(0)
	}
	remaining := new(big.Int).Sub(cloneBigInt(p.TotalBudget), cloneBigInt(p.DistributedAmount))
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}
	clone := *p
	clone.MonthlyAmount = cloneBigInt(p.MonthlyAmount)
	clone.TotalBudget = cloneBigInt(p.TotalBudget)
	clone.DistributedAmount = cloneBigInt(p.DistributedAmount)
	return &clone
}

// ProgramParams carries the caller-supplied fields of a new program.
type ProgramParams struct {
	Name                 string
	MonthlyAmount        *big.Int
	TargetRegion         string
	EligibilityCriteria  string
	TotalBudget          *big.Int
	DurationMonths       uint64
	VerificationRequired VerificationLevel
}

// Claim is an append-only record of one payout.
type Claim struct {
	ID                 uint64           `json:"id"`
	Recipient          [20]byte         `json:"recipient"`
	ProgramID          uint64           `json:"programId"`
	Amount             *big.Int         `json:"amount"`
	Period             uint64           `json:"period"`
	Height             uint64           `json:"height"`
	DistributionType   DistributionType `json:"distributionType"`
	VerificationStatus bool             `json:"verificationStatus"`
	Hash               [32]byte         `json:"hash"`
}

// Clone returns a deep copy of the claim.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Amount = cloneBigInt(c.Amount)
	return &clone
}

// Verifier is a staked account allowed to raise verification levels.
type Verifier struct {
	Address            [20]byte `json:"address"`
	Stake              *big.Int `json:"stake"`
	Completed          uint64   `json:"verificationsCompleted"`
	AccuracyScore      uint8    `json:"accuracyScore"`
	ReputationScore    uint8    `json:"reputationScore"`
	Active             bool     `json:"active"`
	RegistrationHeight uint64   `json:"registrationHeight"`
	RegionFocus        string   `json:"regionFocus"`
}

// Clone returns a deep copy of the verifier.
func (v *Verifier) Clone() *Verifier {
	if v == nil {
		return nil
	}
	clone := *v
	clone.Stake = cloneBigInt(v.Stake)
	return &clone
}

// FundingSource accumulates the contributions of one funder.
type FundingSource struct {
	Address                [20]byte `json:"address"`
	TotalContributed       *big.Int `json:"totalContributed"`
	Contributions          uint64   `json:"contributionsCount"`
	PreferredPrograms      []uint64 `json:"preferredPrograms"`
	Recurring              bool     `json:"isRecurring"`
	LastContributionHeight uint64   `json:"lastContributionHeight"`
	ContributionFrequency  uint64   `json:"contributionFrequency"`
}

// Clone returns a deep copy of the funding source.
func (f *FundingSource) Clone() *FundingSource {
	if f == nil {
		return nil
	}
	clone := *f
	clone.TotalContributed = cloneBigInt(f.TotalContributed)
	clone.PreferredPrograms = append([]uint64{}, f.PreferredPrograms...)
	return &clone
}

// EmergencyDistribution declares a region-wide emergency payout. No
// transition creates one yet; the record shape is stored and queryable.
type EmergencyDistribution struct {
	ID                 uint64   `json:"id"`
	TriggeredBy        [20]byte `json:"triggeredBy"`
	TargetRegion       string   `json:"targetRegion"`
	EmergencyType      string   `json:"emergencyType"`
	AmountPerRecipient *big.Int `json:"amountPerRecipient"`
	TotalRecipients    uint64   `json:"totalRecipients"`
	TotalDistributed   *big.Int `json:"totalDistributed"`
	TriggerHeight      uint64   `json:"triggerHeight"`
	Active             bool     `json:"active"`
	ApprovalVotes      uint64   `json:"approvalVotes"`
	RequiredVotes      uint64   `json:"requiredVotes"`
}

// Globals holds the engine-wide counters.
type Globals struct {
	NextProgramID             uint64
	NextClaimID               uint64
	NextEmergencyID           uint64
	TotalRecipients           uint64
	TotalDistributed          *big.Int
	PlatformFeeBps            uint64
	CurrentDistributionPeriod uint64
}

func newGlobals() *Globals {
	return &Globals{
		NextProgramID:    1,
		NextClaimID:      1,
		NextEmergencyID:  1,
		TotalDistributed: big.NewInt(0),
		PlatformFeeBps:   PlatformFeeBps,
	}
}

// PlatformStats is a read-only snapshot of the global counters.
type PlatformStats struct {
	TotalRecipients  uint64   `json:"totalRecipients"`
	TotalPrograms    uint64   `json:"totalPrograms"`
	TotalClaims      uint64   `json:"totalClaims"`
	TotalDistributed *big.Int `json:"totalDistributed"`
	NextProgramID    uint64   `json:"nextProgramId"`
	NextClaimID      uint64   `json:"nextClaimId"`
	NextEmergencyID  uint64   `json:"nextEmergencyId"`
	PlatformFeeBps   uint64   `json:"platformFeeBps"`
	CurrentPeriod    uint64   `json:"currentPeriod"`
	CurrentHeight    uint64   `json:"currentHeight"`
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
