package ubi

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"ubichain/core/events"
	"ubichain/core/state"
	"ubichain/storage"
)

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

var (
	ownerAddr       = addr(0xF0)
	programCustody  = addr(0xC1)
	platformCustody = addr(0xC2)
	creatorAddr     = addr(0x10)
	recipientAddr   = addr(0x20)
	verifierAddr    = addr(0x30)
	strangerAddr    = addr(0x40)
)

type fixture struct {
	t       *testing.T
	state   *state.Manager
	engine  *Engine
	height  uint64
	emitted []events.Event
}

func (f *fixture) Emit(evt events.Event) { f.emitted = append(f.emitted, evt) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager, err := state.NewManager(db)
	require.NoError(t, err)

	f := &fixture{t: t, state: manager}
	engine := NewEngine()
	engine.SetState(manager)
	engine.SetLedger(manager)
	engine.SetEmitter(f)
	engine.SetHeightFunc(func() uint64 { return f.height })
	engine.SetOwner(ownerAddr)
	engine.SetProgramCustody(programCustody)
	engine.SetPlatformCustody(platformCustody)
	f.engine = engine
	return f
}

func (f *fixture) fund(who [20]byte, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.state.SetBalance(who, new(big.Int).SetUint64(amount)))
}

func (f *fixture) balance(who [20]byte) string {
	f.t.Helper()
	bal, err := f.state.Balance(who)
	require.NoError(f.t, err)
	return bal.String()
}

func (f *fixture) stats() *PlatformStats {
	f.t.Helper()
	stats, err := f.engine.PlatformStats()
	require.NoError(f.t, err)
	return stats
}

func (f *fixture) recipient(who [20]byte) *Recipient {
	f.t.Helper()
	r, ok, err := f.engine.Recipient(who)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return r
}

func (f *fixture) program(id uint64) *Program {
	f.t.Helper()
	p, ok, err := f.engine.Program(id)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return p
}

func (f *fixture) registerVerifier(who [20]byte) {
	f.t.Helper()
	f.fund(who, MinVerifierStake)
	_, err := f.engine.RegisterVerifier(who, "global")
	require.NoError(f.t, err)
}

// createProgram funds creatorAddr with budget and creates a program at the
// current height.
func (f *fixture) createProgram(monthly, budget, months uint64, level VerificationLevel) uint64 {
	f.t.Helper()
	f.fund(creatorAddr, budget)
	id, err := f.engine.CreateProgram(creatorAddr, ProgramParams{
		Name:                 "Basic income",
		MonthlyAmount:        new(big.Int).SetUint64(monthly),
		TargetRegion:         "north",
		EligibilityCriteria:  "resident",
		TotalBudget:          new(big.Int).SetUint64(budget),
		DurationMonths:       months,
		VerificationRequired: level,
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) verifiedRecipient(who [20]byte, score uint8, level VerificationLevel) {
	f.t.Helper()
	_, err := f.engine.RegisterRecipient(who, [32]byte{0x01}, "north", score)
	require.NoError(f.t, err)
	if level > LevelUnverified {
		_, err = f.engine.VerifyRecipient(verifierAddr, who, level)
		require.NoError(f.t, err)
	}
}

func TestUnconfiguredEngineRejectsOperations(t *testing.T) {
	engine := NewEngine()
	_, err := engine.RegisterRecipient(recipientAddr, [32]byte{}, "x", 0)
	require.ErrorIs(t, err, errNilState)

	db := storage.NewMemDB()
	manager, err := state.NewManager(db)
	require.NoError(t, err)
	engine.SetState(manager)
	_, err = engine.Claim(recipientAddr, 1)
	require.ErrorIs(t, err, errNilLedger)
}

func TestErrorCodesAreStable(t *testing.T) {
	cases := map[*Error]uint32{
		ErrNotAuthorized:         100,
		ErrInvalidAmount:         101,
		ErrInsufficientFunds:     102,
		ErrRecipientNotFound:     103,
		ErrAlreadyClaimed:        104,
		ErrNotEligible:           105,
		ErrVerificationPending:   106,
		ErrInvalidPeriod:         107,
		ErrProgramInactive:       108,
		ErrInvalidVerifier:       109,
		ErrDuplicateRegistration: 110,
	}
	for sentinel, want := range cases {
		code, ok := CodeOf(sentinel)
		require.True(t, ok)
		require.Equal(t, want, code, sentinel.Kind)
	}

	wrapped := transferFailed(errors.New("boom"))
	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, CodeInsufficientFunds, code)
	require.Equal(t, "InsufficientFunds", KindOf(wrapped))

	_, ok = CodeOf(errors.New("plain"))
	require.False(t, ok)
	require.Equal(t, "", KindOf(nil))
}

func TestEmergencyRecordsAreReadOnly(t *testing.T) {
	f := newFixture(t)

	_, ok, err := f.engine.Emergency(1)
	require.NoError(t, err)
	require.False(t, ok)

	seeded := &EmergencyDistribution{
		ID:                 1,
		TriggeredBy:        ownerAddr,
		TargetRegion:       "coast",
		EmergencyType:      "flood",
		AmountPerRecipient: big.NewInt(500),
		TotalDistributed:   big.NewInt(0),
		TriggerHeight:      12,
		Active:             true,
		RequiredVotes:      3,
	}
	require.NoError(t, f.state.KVPut(EmergencyStorageKey(1), seeded))

	got, ok, err := f.engine.Emergency(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "flood", got.EmergencyType)
	require.Equal(t, "500", got.AmountPerRecipient.String())
	require.Equal(t, uint64(3), got.RequiredVotes)
	require.Equal(t, uint64(1), f.stats().NextEmergencyID)
}

func TestPlatformStatsStartFromInitialCounters(t *testing.T) {
	f := newFixture(t)
	f.height = MonthlyPeriod*3 + 7

	stats := f.stats()
	require.Equal(t, uint64(0), stats.TotalRecipients)
	require.Equal(t, uint64(0), stats.TotalPrograms)
	require.Equal(t, uint64(0), stats.TotalClaims)
	require.Equal(t, uint64(1), stats.NextProgramID)
	require.Equal(t, uint64(1), stats.NextClaimID)
	require.Equal(t, PlatformFeeBps, stats.PlatformFeeBps)
	require.Equal(t, uint64(3), stats.CurrentPeriod)
	require.Equal(t, "0", stats.TotalDistributed.String())
}
