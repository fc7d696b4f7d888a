package ubi

import (
	"math/big"
	"strings"
)

// CreateProgram moves the full budget from the caller into program custody
// and stores a new active program. It returns the assigned program id. The
// program custody account cannot fund a program from its own balance.
func (e *Engine) CreateProgram(caller [20]byte, params ProgramParams) (uint64, error) {
	if err := e.readyForTransfer(); err != nil {
		return 0, err
	}
	if caller == e.programCustody {
		return 0, ErrNotAuthorized
	}
	if params.MonthlyAmount == nil || params.MonthlyAmount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if params.TotalBudget == nil || params.TotalBudget.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if params.DurationMonths == 0 {
		return 0, ErrInvalidAmount
	}
	if !params.VerificationRequired.Valid() {
		return 0, ErrInvalidAmount
	}
	globals, err := e.loadGlobals()
	if err != nil {
		return 0, err
	}
	budget := new(big.Int).Set(params.TotalBudget)
	if err := e.ledger.Transfer(caller, e.programCustody, budget); err != nil {
		return 0, transferFailed(err)
	}

	start := e.height()
	program := &Program{
		ID:                   globals.NextProgramID,
		Name:                 strings.TrimSpace(params.Name),
		MonthlyAmount:        new(big.Int).Set(params.MonthlyAmount),
		TargetRegion:         strings.TrimSpace(params.TargetRegion),
		EligibilityCriteria:  strings.TrimSpace(params.EligibilityCriteria),
		TotalBudget:          budget,
		DistributedAmount:    big.NewInt(0),
		StartHeight:          start,
		EndHeight:            programEnd(start, params.DurationMonths),
		Active:               true,
		CreatedBy:            caller,
		RecipientCount:       0,
		VerificationRequired: params.VerificationRequired,
	}
	globals.NextProgramID++

	if err := e.putProgram(program); err != nil {
		return 0, err
	}
	if err := e.putGlobals(globals); err != nil {
		return 0, err
	}
	e.emit(ProgramCreatedEvent(program))
	return program.ID, nil
}

// PauseProgram deactivates a program. Only the platform owner or the
// program's creator may pause it; there is no resume.
func (e *Engine) PauseProgram(caller [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	program, ok, err := e.getProgram(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidPeriod
	}
	if caller != e.owner && caller != program.CreatedBy {
		return ErrNotAuthorized
	}
	program.Active = false
	if err := e.putProgram(program); err != nil {
		return err
	}
	e.emit(ProgramPausedEvent(id, caller))
	return nil
}

// Program returns the stored program record.
func (e *Engine) Program(id uint64) (*Program, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	program, ok, err := e.getProgram(id)
	if err != nil || !ok {
		return nil, false, err
	}
	return program.Clone(), true, nil
}
