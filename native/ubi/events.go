package ubi

import (
	"encoding/hex"
	"strconv"

	"ubichain/core/events"
	"ubichain/core/types"
	"ubichain/crypto"
)

const (
	// EventTypeRecipientRegistered is emitted when a recipient registers.
	EventTypeRecipientRegistered = "ubi.recipient.registered"
	// EventTypeRecipientVerified is emitted when a verifier raises a level.
	EventTypeRecipientVerified = "ubi.recipient.verified"
	// EventTypeVerifierRegistered is emitted when a verifier stakes in.
	EventTypeVerifierRegistered = "ubi.verifier.registered"
	// EventTypeProgramCreated is emitted when a funded program is created.
	EventTypeProgramCreated = "ubi.program.created"
	// EventTypeProgramPaused is emitted when a program is deactivated.
	EventTypeProgramPaused = "ubi.program.paused"
	// EventTypeClaimRecorded is emitted for every successful claim.
	EventTypeClaimRecorded = "ubi.claim.recorded"
	// EventTypeFundContributed is emitted for every accepted contribution.
	EventTypeFundContributed = "ubi.fund.contributed"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func addrAttr(addr [20]byte) string { return crypto.FormatAddress(addr) }

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// RecipientRegisteredEvent describes a new recipient. The KYC digest is not
// included.
func RecipientRegisteredEvent(r *Recipient) *types.Event {
	return &types.Event{
		Type: EventTypeRecipientRegistered,
		Attributes: map[string]string{
			"recipient":       addrAttr(r.Address),
			"region":          r.Region,
			"dependencyScore": strconv.Itoa(int(r.DependencyScore)),
			"height":          u64(r.RegistrationHeight),
		},
	}
}

// RecipientVerifiedEvent describes a verification level change.
func RecipientVerifiedEvent(recipient, verifier [20]byte, from, to VerificationLevel, height uint64) *types.Event {
	return &types.Event{
		Type: EventTypeRecipientVerified,
		Attributes: map[string]string{
			"recipient": addrAttr(recipient),
			"verifier":  addrAttr(verifier),
			"from":      from.String(),
			"to":        to.String(),
			"height":    u64(height),
		},
	}
}

// VerifierRegisteredEvent describes a newly staked verifier.
func VerifierRegisteredEvent(v *Verifier) *types.Event {
	return &types.Event{
		Type: EventTypeVerifierRegistered,
		Attributes: map[string]string{
			"verifier":    addrAttr(v.Address),
			"stake":       v.Stake.String(),
			"regionFocus": v.RegionFocus,
		},
	}
}

// ProgramCreatedEvent describes a new program.
func ProgramCreatedEvent(p *Program) *types.Event {
	return &types.Event{
		Type: EventTypeProgramCreated,
		Attributes: map[string]string{
			"programId":            u64(p.ID),
			"creator":              addrAttr(p.CreatedBy),
			"monthlyAmount":        p.MonthlyAmount.String(),
			"totalBudget":          p.TotalBudget.String(),
			"startHeight":          u64(p.StartHeight),
			"endHeight":            u64(p.EndHeight),
			"verificationRequired": p.VerificationRequired.String(),
		},
	}
}

// ProgramPausedEvent describes a program being deactivated.
func ProgramPausedEvent(id uint64, caller [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeProgramPaused,
		Attributes: map[string]string{
			"programId": u64(id),
			"caller":    addrAttr(caller),
		},
	}
}

// ClaimRecordedEvent describes a paid claim.
func ClaimRecordedEvent(c *Claim) *types.Event {
	return &types.Event{
		Type: EventTypeClaimRecorded,
		Attributes: map[string]string{
			"claimId":   u64(c.ID),
			"recipient": addrAttr(c.Recipient),
			"programId": u64(c.ProgramID),
			"amount":    c.Amount.String(),
			"period":    u64(c.Period),
			"height":    u64(c.Height),
			"hash":      "0x" + hex.EncodeToString(c.Hash[:]),
		},
	}
}

// FundContributedEvent describes an accepted contribution.
func FundContributedEvent(funder [20]byte, amount string, total string, count uint64) *types.Event {
	return &types.Event{
		Type: EventTypeFundContributed,
		Attributes: map[string]string{
			"funder":        addrAttr(funder),
			"amount":        amount,
			"total":         total,
			"contributions": u64(count),
		},
	}
}
