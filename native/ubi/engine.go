package ubi

import (
	"fmt"
	"math/big"

	"ubichain/core/events"
	"ubichain/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVExists(key []byte) (bool, error)
}

// AccountLedger moves native value between accounts.
type AccountLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Engine implements the distribution state machine. It performs every
// precondition check of an operation before its first write; the caller is
// responsible for running each operation inside a revertible state snapshot.
type Engine struct {
	state           engineState
	ledger          AccountLedger
	emitter         events.Emitter
	heightFn        func() uint64
	owner           [20]byte
	programCustody  [20]byte
	platformCustody [20]byte
}

// NewEngine constructs an engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		heightFn: func() uint64 { return 0 },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the value-transfer backend.
func (e *Engine) SetLedger(ledger AccountLedger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetHeightFunc configures the source of the current ledger height.
func (e *Engine) SetHeightFunc(height func() uint64) {
	if height == nil {
		e.heightFn = func() uint64 { return 0 }
		return
	}
	e.heightFn = height
}

// SetOwner configures the platform owner allowed to pause any program.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

// SetProgramCustody configures the account holding program budgets.
func (e *Engine) SetProgramCustody(addr [20]byte) { e.programCustody = addr }

// SetPlatformCustody configures the account holding stakes and contributions.
func (e *Engine) SetPlatformCustody(addr [20]byte) { e.platformCustody = addr }

// Owner returns the configured platform owner.
func (e *Engine) Owner() [20]byte { return e.owner }

func (e *Engine) height() uint64 {
	if e == nil || e.heightFn == nil {
		return 0
	}
	return e.heightFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) readyForTransfer() error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func (e *Engine) loadGlobals() (*Globals, error) {
	g := new(Globals)
	ok, err := e.state.KVGet(globalsKey(), g)
	if err != nil {
		return nil, fmt.Errorf("load globals: %w", err)
	}
	if !ok {
		return newGlobals(), nil
	}
	if g.TotalDistributed == nil {
		g.TotalDistributed = big.NewInt(0)
	}
	return g, nil
}

func (e *Engine) putGlobals(g *Globals) error {
	return e.state.KVPut(globalsKey(), g)
}

// storedRecipient is the RLP layout of a recipient; optional fields are
// flagged explicitly because RLP cannot tell a nil pointer from a zero value.
type storedRecipient struct {
	Address            [20]byte
	VerificationLevel  uint8
	RegistrationHeight uint64
	LastClaimPeriod    uint64
	TotalClaimed       *big.Int
	Active             bool
	KYCHash            [32]byte
	Region             string
	DependencyScore    uint8
	Verified           bool
	VerifiedBy         [20]byte
	VerificationHeight uint64
}

func toStoredRecipient(r *Recipient) *storedRecipient {
	stored := &storedRecipient{
		Address:            r.Address,
		VerificationLevel:  uint8(r.VerificationLevel),
		RegistrationHeight: r.RegistrationHeight,
		LastClaimPeriod:    r.LastClaimPeriod,
		TotalClaimed:       cloneBigInt(r.TotalClaimed),
		Active:             r.Active,
		KYCHash:            r.KYCHash,
		Region:             r.Region,
		DependencyScore:    r.DependencyScore,
	}
	if r.VerifiedBy != nil && r.VerificationHeight != nil {
		stored.Verified = true
		stored.VerifiedBy = *r.VerifiedBy
		stored.VerificationHeight = *r.VerificationHeight
	}
	return stored
}

func (s *storedRecipient) recipient() *Recipient {
	r := &Recipient{
		Address:            s.Address,
		VerificationLevel:  VerificationLevel(s.VerificationLevel),
		RegistrationHeight: s.RegistrationHeight,
		LastClaimPeriod:    s.LastClaimPeriod,
		TotalClaimed:       cloneBigInt(s.TotalClaimed),
		Active:             s.Active,
		KYCHash:            s.KYCHash,
		Region:             s.Region,
		DependencyScore:    s.DependencyScore,
	}
	if s.Verified {
		by := s.VerifiedBy
		height := s.VerificationHeight
		r.VerifiedBy = &by
		r.VerificationHeight = &height
	}
	return r
}

func (e *Engine) getRecipient(addr [20]byte) (*Recipient, bool, error) {
	stored := new(storedRecipient)
	ok, err := e.state.KVGet(recipientKey(addr), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.recipient(), true, nil
}

func (e *Engine) putRecipient(r *Recipient) error {
	return e.state.KVPut(recipientKey(r.Address), toStoredRecipient(r))
}

func (e *Engine) getProgram(id uint64) (*Program, bool, error) {
	p := new(Program)
	ok, err := e.state.KVGet(programKey(id), p)
	if err != nil || !ok {
		return nil, false, err
	}
	return p, true, nil
}

func (e *Engine) putProgram(p *Program) error {
	return e.state.KVPut(programKey(p.ID), p)
}

func (e *Engine) getVerifier(addr [20]byte) (*Verifier, bool, error) {
	v := new(Verifier)
	ok, err := e.state.KVGet(verifierKey(addr), v)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

func (e *Engine) putVerifier(v *Verifier) error {
	return e.state.KVPut(verifierKey(v.Address), v)
}
