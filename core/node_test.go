package core

import (
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ubichain/core/events"
	"ubichain/core/genesis"
	"ubichain/crypto"
	"ubichain/native/ubi"
	"ubichain/storage"
)

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

var (
	ownerAddr     = addr(0xF0)
	creatorAddr   = addr(0x10)
	recipientAddr = addr(0x20)
	verifierAddr  = addr(0x30)
	funderAddr    = addr(0x50)
)

func testGenesis(t *testing.T) *genesis.GenesisSpec {
	t.Helper()
	raw := `{
		"owner": "` + crypto.FormatAddress(ownerAddr) + `",
		"programCustody": "` + crypto.FormatAddress(addr(0xC1)) + `",
		"platformCustody": "` + crypto.FormatAddress(addr(0xC2)) + `",
		"alloc": {
			"` + crypto.FormatAddress(creatorAddr) + `": "10000",
			"` + crypto.FormatAddress(verifierAddr) + `": "1000000",
			"` + crypto.FormatAddress(funderAddr) + `": "200000"
		}
	}`
	spec, err := genesis.ParseGenesisSpec([]byte(raw))
	require.NoError(t, err)
	return spec
}

type recordingSink struct{ seen []events.Event }

func (s *recordingSink) Emit(evt events.Event) { s.seen = append(s.seen, evt) }

func newTestNode(t *testing.T) *Node {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, err := NewNode(db, testGenesis(t), nil)
	require.NoError(t, err)
	return node
}

func balance(t *testing.T, n *Node, who [20]byte) string {
	t.Helper()
	bal, err := n.Balance(who)
	require.NoError(t, err)
	return bal.String()
}

func TestNewNodeRequiresGenesisForEmptyDatabase(t *testing.T) {
	_, err := NewNode(storage.NewMemDB(), nil, nil)
	require.ErrorIs(t, err, ErrGenesisRequired)
}

func TestNodeAppliesGenesisAllocations(t *testing.T) {
	n := newTestNode(t)
	require.Equal(t, uint64(0), n.Height())
	require.Equal(t, ownerAddr, n.Accounts().Owner)
	require.Equal(t, addr(0xC1), n.Accounts().ProgramCustody)
	require.Equal(t, "10000", balance(t, n, creatorAddr))
	require.NotEqual(t, [32]byte{}, n.StateRoot())
}

func TestMonthlyClaimLifecycle(t *testing.T) {
	n := newTestNode(t)
	sink := &recordingSink{}
	n.SetEventSink(sink)

	_, err := n.RegisterVerifier(verifierAddr, "north")
	require.NoError(t, err)
	_, err = n.AdvanceTo(100)
	require.NoError(t, err)

	id, err := n.CreateProgram(creatorAddr, ubi.ProgramParams{
		Name:                 "Monthly support",
		MonthlyAmount:        big.NewInt(100),
		TotalBudget:          big.NewInt(1000),
		DurationMonths:       1,
		VerificationRequired: ubi.LevelBasic,
	})
	require.NoError(t, err)
	_, err = n.RegisterRecipient(recipientAddr, [32]byte{0x01}, "north", 20)
	require.NoError(t, err)
	_, err = n.VerifyRecipient(verifierAddr, recipientAddr, ubi.LevelBasic)
	require.NoError(t, err)

	info, err := n.SealBlock()
	require.NoError(t, err)
	require.Equal(t, uint64(100), info.Height)
	require.Equal(t, 3, info.TxCount)
	require.Len(t, info.Events, 3)
	require.Equal(t, ubi.EventTypeProgramCreated, info.Events[0].Type)
	require.Equal(t, uint64(101), n.Height())

	_, err = n.AdvanceTo(ubi.MonthlyPeriod)
	require.NoError(t, err)
	claim, err := n.Claim(recipientAddr, id)
	require.NoError(t, err)
	require.Equal(t, "120", claim.Amount.String())
	require.Equal(t, uint64(1), claim.Period)
	require.Equal(t, ubi.MonthlyPeriod, claim.Height)

	_, err = n.AdvanceTo(ubi.MonthlyPeriod + 1)
	require.NoError(t, err)
	_, err = n.Claim(recipientAddr, id)
	require.ErrorIs(t, err, ubi.ErrAlreadyClaimed)

	info, err = n.SealBlock()
	require.NoError(t, err)
	require.Equal(t, 0, info.TxCount)

	require.Equal(t, "120", balance(t, n, recipientAddr))
	require.Equal(t, "880", balance(t, n, addr(0xC1)))
	stats, err := n.PlatformStats()
	require.NoError(t, err)
	require.Equal(t, uint64(1), stats.TotalClaims)
	require.Equal(t, "120", stats.TotalDistributed.String())

	last := sink.seen[len(sink.seen)-1]
	require.Equal(t, ubi.EventTypeClaimRecorded, last.EventType())
	require.Len(t, sink.seen, 5)
}

func TestRejectedOperationLeavesNoTrace(t *testing.T) {
	n := newTestNode(t)
	rootBefore := n.StateRoot()

	_, err := n.CreateProgram(creatorAddr, ubi.ProgramParams{
		Name:           "Too large",
		MonthlyAmount:  big.NewInt(100),
		TotalBudget:    big.NewInt(20_000),
		DurationMonths: 1,
	})
	require.ErrorIs(t, err, ubi.ErrInsufficientFunds)
	require.Equal(t, "10000", balance(t, n, creatorAddr))

	info, err := n.SealBlock()
	require.NoError(t, err)
	require.Equal(t, 0, info.TxCount)
	require.Empty(t, info.Events)
	require.NotEqual(t, rootBefore, info.StateRoot)

	_, ok, err := n.Program(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoundaryValidationRejectsLongInputs(t *testing.T) {
	n := newTestNode(t)

	_, err := n.RegisterRecipient(recipientAddr, [32]byte{}, strings.Repeat("x", ubi.MaxRegionLength+1), 0)
	require.ErrorIs(t, err, ubi.ErrInputTooLong)
	_, ok, err := n.Recipient(recipientAddr)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = n.CreateProgram(creatorAddr, ubi.ProgramParams{
		Name:           strings.Repeat("n", ubi.MaxNameLength+1),
		MonthlyAmount:  big.NewInt(1),
		TotalBudget:    big.NewInt(1),
		DurationMonths: 1,
	})
	require.ErrorIs(t, err, ubi.ErrInputTooLong)
	require.Equal(t, "10000", balance(t, n, creatorAddr))

	_, err = n.Contribute(funderAddr, big.NewInt(100_000), []uint64{1, 2, 3, 4, 5, 6})
	require.ErrorIs(t, err, ubi.ErrInputTooLong)
	require.Equal(t, "200000", balance(t, n, funderAddr))
}

func TestContributionAndGetters(t *testing.T) {
	n := newTestNode(t)
	source, err := n.Contribute(funderAddr, big.NewInt(150_000), []uint64{1})
	require.NoError(t, err)
	require.Equal(t, uint64(1), source.Contributions)

	stored, ok, err := n.FundingSource(funderAddr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "150000", stored.TotalContributed.String())
	require.Equal(t, "150000", balance(t, n, addr(0xC2)))

	_, ok, err = n.Emergency(1)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = n.Verifier(verifierAddr)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = n.ClaimByID(1)
	require.NoError(t, err)
	require.False(t, ok)

	can, err := n.CanClaim(recipientAddr, 1)
	require.NoError(t, err)
	require.False(t, can)
	amount, err := n.ClaimableAmount(recipientAddr, 1)
	require.NoError(t, err)
	require.Equal(t, "0", amount.String())
}

func TestPauseProgramByOwner(t *testing.T) {
	n := newTestNode(t)
	id, err := n.CreateProgram(creatorAddr, ubi.ProgramParams{
		Name:           "Pausable",
		MonthlyAmount:  big.NewInt(10),
		TotalBudget:    big.NewInt(100),
		DurationMonths: 2,
	})
	require.NoError(t, err)
	require.ErrorIs(t, n.PauseProgram(recipientAddr, id), ubi.ErrNotAuthorized)
	require.NoError(t, n.PauseProgram(ownerAddr, id))

	program, ok, err := n.Program(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, program.Active)
}

func TestAdvanceToRejectsPastHeights(t *testing.T) {
	n := newTestNode(t)
	_, err := n.AdvanceTo(10)
	require.NoError(t, err)
	_, err = n.AdvanceTo(10)
	require.ErrorIs(t, err, ErrHeightNotAhead)
	_, err = n.AdvanceTo(3)
	require.ErrorIs(t, err, ErrHeightNotAhead)
	require.Equal(t, uint64(10), n.Height())
}

func TestNodeResumesFromLevelDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")
	db, err := storage.NewLevelDB(path)
	require.NoError(t, err)

	n, err := NewNode(db, testGenesis(t), nil)
	require.NoError(t, err)
	_, err = n.RegisterRecipient(recipientAddr, [32]byte{0x09}, "north", 40)
	require.NoError(t, err)
	info, err := n.AdvanceTo(500)
	require.NoError(t, err)

	// Unsealed operations are not persisted.
	_, err = n.RegisterVerifier(verifierAddr, "north")
	require.NoError(t, err)
	db.Close()

	reopened, err := storage.NewLevelDB(path)
	require.NoError(t, err)
	t.Cleanup(reopened.Close)
	resumed, err := NewNode(reopened, nil, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(500), resumed.Height())
	require.Equal(t, info.StateRoot, resumed.StateRoot())
	require.Equal(t, ownerAddr, resumed.Accounts().Owner)

	r, ok, err := resumed.Recipient(recipientAddr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(40), r.DependencyScore)
	_, ok, err = resumed.Verifier(verifierAddr)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "1000000", balance(t, resumed, verifierAddr))
}
