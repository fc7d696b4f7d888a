package ubi

import "math/big"

func eligible(r *Recipient, p *Program) bool {
	return r.Active && p.Active && r.VerificationLevel >= p.VerificationRequired
}

// Claim pays the caller's monthly amount from a program. The checks run in a
// fixed order and the first failure is returned; the transfer is attempted
// only once every check has passed. The stored claim record is returned.
func (e *Engine) Claim(caller [20]byte, programID uint64) (*Claim, error) {
	if err := e.readyForTransfer(); err != nil {
		return nil, err
	}
	if caller == e.programCustody {
		return nil, ErrNotAuthorized
	}
	program, ok, err := e.getProgram(programID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A missing program is reported as InvalidPeriod for caller compatibility.
		return nil, ErrInvalidPeriod
	}
	recipient, ok, err := e.getRecipient(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecipientNotFound
	}

	height := e.height()
	period := MonthlyPeriodAt(height)
	amount, err := ScaledAmount(program.MonthlyAmount, recipient.DependencyScore)
	if err != nil {
		return nil, err
	}

	if !eligible(recipient, program) {
		return nil, ErrNotEligible
	}
	if !program.Active {
		return nil, ErrProgramInactive
	}
	if period <= recipient.LastClaimPeriod {
		return nil, ErrAlreadyClaimed
	}
	if program.Remaining().Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}
	if height < program.StartHeight || height >= program.EndHeight {
		return nil, ErrInvalidPeriod
	}

	globals, err := e.loadGlobals()
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(e.programCustody, caller, amount); err != nil {
		return nil, transferFailed(err)
	}

	claim := &Claim{
		ID:                 globals.NextClaimID,
		Recipient:          caller,
		ProgramID:          programID,
		Amount:             new(big.Int).Set(amount),
		Period:             period,
		Height:             height,
		DistributionType:   DistributionMonthly,
		VerificationStatus: true,
		Hash:               claimHash(caller, amount, period),
	}
	recipient.LastClaimPeriod = period
	recipient.TotalClaimed = new(big.Int).Add(recipient.TotalClaimed, amount)
	program.DistributedAmount = new(big.Int).Add(cloneBigInt(program.DistributedAmount), amount)
	globals.NextClaimID++
	globals.TotalDistributed = new(big.Int).Add(globals.TotalDistributed, amount)

	if err := e.state.KVPut(claimKey(claim.ID), claim); err != nil {
		return nil, err
	}
	if err := e.putRecipient(recipient); err != nil {
		return nil, err
	}
	if err := e.putProgram(program); err != nil {
		return nil, err
	}
	if err := e.putGlobals(globals); err != nil {
		return nil, err
	}
	e.emit(ClaimRecordedEvent(claim))
	return claim.Clone(), nil
}

// CanClaim reports whether recipient is eligible for program in the current
// period. Missing records yield false.
func (e *Engine) CanClaim(recipientAddr [20]byte, programID uint64) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	recipient, program, ok, err := e.claimPair(recipientAddr, programID)
	if err != nil || !ok {
		return false, err
	}
	period := MonthlyPeriodAt(e.height())
	return eligible(recipient, program) && period > recipient.LastClaimPeriod, nil
}

// ClaimableAmount returns the scaled monthly amount when the recipient is
// eligible for the program and zero otherwise. It does not consider whether
// the current period was already claimed.
func (e *Engine) ClaimableAmount(recipientAddr [20]byte, programID uint64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	recipient, program, ok, err := e.claimPair(recipientAddr, programID)
	if err != nil {
		return nil, err
	}
	if !ok || !eligible(recipient, program) {
		return big.NewInt(0), nil
	}
	amount, err := ScaledAmount(program.MonthlyAmount, recipient.DependencyScore)
	if err != nil {
		return big.NewInt(0), nil
	}
	return amount, nil
}

func (e *Engine) claimPair(recipientAddr [20]byte, programID uint64) (*Recipient, *Program, bool, error) {
	recipient, ok, err := e.getRecipient(recipientAddr)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	program, ok, err := e.getProgram(programID)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	return recipient, program, true, nil
}

// ClaimByID returns a stored claim record.
func (e *Engine) ClaimByID(id uint64) (*Claim, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	c := new(Claim)
	ok, err := e.state.KVGet(claimKey(id), c)
	if err != nil || !ok {
		return nil, false, err
	}
	return c, true, nil
}
