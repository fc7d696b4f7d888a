package ubi

import "strings"

// RegisterVerifier stakes MinVerifierStake from the caller into platform
// custody and records the caller as an active verifier.
func (e *Engine) RegisterVerifier(caller [20]byte, regionFocus string) (*Verifier, error) {
	if err := e.readyForTransfer(); err != nil {
		return nil, err
	}
	if caller == e.platformCustody {
		return nil, ErrNotAuthorized
	}
	exists, err := e.state.KVExists(verifierKey(caller))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRegistration
	}
	stake := minVerifierStake()
	if err := e.ledger.Transfer(caller, e.platformCustody, stake); err != nil {
		return nil, transferFailed(err)
	}
	verifier := &Verifier{
		Address:            caller,
		Stake:              stake,
		Completed:          0,
		AccuracyScore:      initialScore,
		ReputationScore:    initialScore,
		Active:             true,
		RegistrationHeight: e.height(),
		RegionFocus:        strings.TrimSpace(regionFocus),
	}
	if err := e.putVerifier(verifier); err != nil {
		return nil, err
	}
	e.emit(VerifierRegisteredEvent(verifier))
	return verifier.Clone(), nil
}

// Verifier returns the stored verifier record.
func (e *Engine) Verifier(addr [20]byte) (*Verifier, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	return e.getVerifier(addr)
}
