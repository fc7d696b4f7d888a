package ubi

import (
	"math/big"
	"strings"
)

// RegisterRecipient creates the caller's recipient record at level
// Unverified.
func (e *Engine) RegisterRecipient(caller [20]byte, kycHash [32]byte, region string, dependencyScore uint8) (*Recipient, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	exists, err := e.state.KVExists(recipientKey(caller))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRegistration
	}
	if dependencyScore > MaxDependencyScore {
		return nil, ErrInvalidAmount
	}
	globals, err := e.loadGlobals()
	if err != nil {
		return nil, err
	}
	recipient := &Recipient{
		Address:            caller,
		VerificationLevel:  LevelUnverified,
		RegistrationHeight: e.height(),
		LastClaimPeriod:    0,
		TotalClaimed:       big.NewInt(0),
		Active:             true,
		KYCHash:            kycHash,
		Region:             strings.TrimSpace(region),
		DependencyScore:    dependencyScore,
	}
	globals.TotalRecipients++

	if err := e.putRecipient(recipient); err != nil {
		return nil, err
	}
	if err := e.putGlobals(globals); err != nil {
		return nil, err
	}
	e.emit(RecipientRegisteredEvent(recipient))
	return recipient.Clone(), nil
}

// VerifyRecipient raises a recipient's verification level. Levels only move
// upwards; proposing the current level or lower is rejected.
func (e *Engine) VerifyRecipient(caller [20]byte, recipientAddr [20]byte, level VerificationLevel) (*Recipient, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	verifier, ok, err := e.getVerifier(caller)
	if err != nil {
		return nil, err
	}
	if !ok || !verifier.Active {
		return nil, ErrInvalidVerifier
	}
	recipient, ok, err := e.getRecipient(recipientAddr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecipientNotFound
	}
	if !level.Valid() {
		return nil, ErrInvalidAmount
	}
	if level <= recipient.VerificationLevel {
		return nil, ErrInvalidAmount
	}

	height := e.height()
	previous := recipient.VerificationLevel
	verifiedBy := caller
	recipient.VerificationLevel = level
	recipient.VerifiedBy = &verifiedBy
	recipient.VerificationHeight = &height
	verifier.Completed++

	if err := e.putRecipient(recipient); err != nil {
		return nil, err
	}
	if err := e.putVerifier(verifier); err != nil {
		return nil, err
	}
	e.emit(RecipientVerifiedEvent(recipientAddr, caller, previous, level, height))
	return recipient.Clone(), nil
}

// Recipient returns the stored recipient record without mutating state.
func (e *Engine) Recipient(addr [20]byte) (*Recipient, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	return e.getRecipient(addr)
}
