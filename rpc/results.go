package rpc

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"ubichain/crypto"
	"ubichain/native/ubi"
)

// RecipientResult is the JSON view of a recipient record.
type RecipientResult struct {
	Address            string  `json:"address"`
	VerificationLevel  uint8   `json:"verificationLevel"`
	RegistrationHeight uint64  `json:"registrationHeight"`
	LastClaimPeriod    uint64  `json:"lastClaimPeriod"`
	TotalClaimed       string  `json:"totalClaimed"`
	Active             bool    `json:"active"`
	KYCHash            string  `json:"kycHash"`
	Region             string  `json:"region"`
	DependencyScore    uint8   `json:"dependencyScore"`
	VerifiedBy         string  `json:"verifiedBy,omitempty"`
	VerificationHeight *uint64 `json:"verificationHeight,omitempty"`
}

// ProgramResult is the JSON view of a distribution program.
type ProgramResult struct {
	ID                   uint64 `json:"id"`
	Name                 string `json:"name"`
	MonthlyAmount        string `json:"monthlyAmount"`
	TargetRegion         string `json:"targetRegion"`
	EligibilityCriteria  string `json:"eligibilityCriteria"`
	TotalBudget          string `json:"totalBudget"`
	DistributedAmount    string `json:"distributedAmount"`
	StartHeight          uint64 `json:"startHeight"`
	EndHeight            uint64 `json:"endHeight"`
	Active               bool   `json:"active"`
	CreatedBy            string `json:"createdBy"`
	RecipientCount       uint64 `json:"recipientCount"`
	VerificationRequired uint8  `json:"verificationRequired"`
}

// ClaimResult is the JSON view of a recorded claim.
type ClaimResult struct {
	ID                 uint64 `json:"id"`
	Recipient          string `json:"recipient"`
	ProgramID          uint64 `json:"programId"`
	Amount             string `json:"amount"`
	Period             uint64 `json:"period"`
	Height             uint64 `json:"height"`
	DistributionType   string `json:"distributionType"`
	VerificationStatus bool   `json:"verificationStatus"`
	Hash               string `json:"hash"`
}

// VerifierResult is the JSON view of a verifier record.
type VerifierResult struct {
	Address                string `json:"address"`
	Stake                  string `json:"stake"`
	VerificationsCompleted uint64 `json:"verificationsCompleted"`
	AccuracyScore          uint8  `json:"accuracyScore"`
	ReputationScore        uint8  `json:"reputationScore"`
	Active                 bool   `json:"active"`
	RegistrationHeight     uint64 `json:"registrationHeight"`
	RegionFocus            string `json:"regionFocus"`
}

// FundingSourceResult is the JSON view of a funder's contribution history.
type FundingSourceResult struct {
	Address                string   `json:"address"`
	TotalContributed       string   `json:"totalContributed"`
	ContributionsCount     uint64   `json:"contributionsCount"`
	PreferredPrograms      []uint64 `json:"preferredPrograms"`
	IsRecurring            bool     `json:"isRecurring"`
	LastContributionHeight uint64   `json:"lastContributionHeight"`
	ContributionFrequency  uint64   `json:"contributionFrequency"`
}

// EmergencyResult is the JSON view of an emergency distribution record.
type EmergencyResult struct {
	ID                 uint64 `json:"id"`
	TriggeredBy        string `json:"triggeredBy"`
	TargetRegion       string `json:"targetRegion"`
	EmergencyType      string `json:"emergencyType"`
	AmountPerRecipient string `json:"amountPerRecipient"`
	TotalRecipients    uint64 `json:"totalRecipients"`
	TotalDistributed   string `json:"totalDistributed"`
	TriggerHeight      uint64 `json:"triggerHeight"`
	Active             bool   `json:"active"`
	ApprovalVotes      uint64 `json:"approvalVotes"`
	RequiredVotes      uint64 `json:"requiredVotes"`
}

// StatsResult is the JSON view of the platform counters.
type StatsResult struct {
	TotalRecipients  uint64 `json:"totalRecipients"`
	TotalPrograms    uint64 `json:"totalPrograms"`
	TotalClaims      uint64 `json:"totalClaims"`
	TotalDistributed string `json:"totalDistributed"`
	PlatformFeeBps   uint64 `json:"platformFeeBps"`
	CurrentPeriod    uint64 `json:"currentPeriod"`
	CurrentHeight    uint64 `json:"currentHeight"`
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newRecipientResult(r *ubi.Recipient) *RecipientResult {
	out := &RecipientResult{
		Address:            crypto.FormatAddress(r.Address),
		VerificationLevel:  uint8(r.VerificationLevel),
		RegistrationHeight: r.RegistrationHeight,
		LastClaimPeriod:    r.LastClaimPeriod,
		TotalClaimed:       bigString(r.TotalClaimed),
		Active:             r.Active,
		KYCHash:            hexutil.Encode(r.KYCHash[:]),
		Region:             r.Region,
		DependencyScore:    r.DependencyScore,
		VerificationHeight: r.VerificationHeight,
	}
	if r.VerifiedBy != nil {
		out.VerifiedBy = crypto.FormatAddress(*r.VerifiedBy)
	}
	return out
}

func newProgramResult(p *ubi.Program) *ProgramResult {
	return &ProgramResult{
		ID:                   p.ID,
		Name:                 p.Name,
		MonthlyAmount:        bigString(p.MonthlyAmount),
		TargetRegion:         p.TargetRegion,
		EligibilityCriteria:  p.EligibilityCriteria,
		TotalBudget:          bigString(p.TotalBudget),
		DistributedAmount:    bigString(p.DistributedAmount),
		StartHeight:          p.StartHeight,
		EndHeight:            p.EndHeight,
		Active:               p.Active,
		CreatedBy:            crypto.FormatAddress(p.CreatedBy),
		RecipientCount:       p.RecipientCount,
		VerificationRequired: uint8(p.VerificationRequired),
	}
}

func newClaimResult(c *ubi.Claim) *ClaimResult {
	return &ClaimResult{
		ID:                 c.ID,
		Recipient:          crypto.FormatAddress(c.Recipient),
		ProgramID:          c.ProgramID,
		Amount:             bigString(c.Amount),
		Period:             c.Period,
		Height:             c.Height,
		DistributionType:   c.DistributionType.String(),
		VerificationStatus: c.VerificationStatus,
		Hash:               hexutil.Encode(c.Hash[:]),
	}
}

func newVerifierResult(v *ubi.Verifier) *VerifierResult {
	return &VerifierResult{
		Address:                crypto.FormatAddress(v.Address),
		Stake:                  bigString(v.Stake),
		VerificationsCompleted: v.Completed,
		AccuracyScore:          v.AccuracyScore,
		ReputationScore:        v.ReputationScore,
		Active:                 v.Active,
		RegistrationHeight:     v.RegistrationHeight,
		RegionFocus:            v.RegionFocus,
	}
}

func newFundingSourceResult(f *ubi.FundingSource) *FundingSourceResult {
	preferred := f.PreferredPrograms
	if preferred == nil {
		preferred = []uint64{}
	}
	return &FundingSourceResult{
		Address:                crypto.FormatAddress(f.Address),
		TotalContributed:       bigString(f.TotalContributed),
		ContributionsCount:     f.Contributions,
		PreferredPrograms:      preferred,
		IsRecurring:            f.Recurring,
		LastContributionHeight: f.LastContributionHeight,
		ContributionFrequency:  f.ContributionFrequency,
	}
}

func newEmergencyResult(e *ubi.EmergencyDistribution) *EmergencyResult {
	return &EmergencyResult{
		ID:                 e.ID,
		TriggeredBy:        crypto.FormatAddress(e.TriggeredBy),
		TargetRegion:       e.TargetRegion,
		EmergencyType:      e.EmergencyType,
		AmountPerRecipient: bigString(e.AmountPerRecipient),
		TotalRecipients:    e.TotalRecipients,
		TotalDistributed:   bigString(e.TotalDistributed),
		TriggerHeight:      e.TriggerHeight,
		Active:             e.Active,
		ApprovalVotes:      e.ApprovalVotes,
		RequiredVotes:      e.RequiredVotes,
	}
}

func newStatsResult(s *ubi.PlatformStats) *StatsResult {
	return &StatsResult{
		TotalRecipients:  s.TotalRecipients,
		TotalPrograms:    s.TotalPrograms,
		TotalClaims:      s.TotalClaims,
		TotalDistributed: bigString(s.TotalDistributed),
		PlatformFeeBps:   s.PlatformFeeBps,
		CurrentPeriod:    s.CurrentPeriod,
		CurrentHeight:    s.CurrentHeight,
	}
}
