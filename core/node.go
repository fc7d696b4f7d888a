package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"ubichain/core/events"
	"ubichain/core/genesis"
	ubistate "ubichain/core/state"
	"ubichain/core/types"
	"ubichain/crypto"
	"ubichain/native/ubi"
	"ubichain/observability"
	"ubichain/observability/logging"
	"ubichain/observability/metrics"
	"ubichain/storage"
)

var heightKey = []byte("chain/height")

var (
	// ErrGenesisRequired is returned when an empty database is opened without
	// a genesis document.
	ErrGenesisRequired = errors.New("core: genesis spec required for empty database")
	// ErrHeightNotAhead is returned by AdvanceTo for targets at or below the
	// current height.
	ErrHeightNotAhead = errors.New("core: target height must be above current height")
)

// Node owns the ledger state and serialises every operation against it.
// Operations execute against the open block at Height(); SealBlock commits
// them and opens the next block.
type Node struct {
	db       storage.Database
	state    *ubistate.Manager
	accounts genesis.Accounts
	height   uint64
	block    events.Buffer
	txCount  int
	sink     events.Emitter
	stateMu  sync.Mutex
	logger   *slog.Logger
	metrics  *metrics.LedgerMetrics
}

// NewNode opens the ledger stored in db. An empty database is seeded from
// spec; a seeded database ignores spec and resumes at its stored height.
func NewNode(db storage.Database, spec *genesis.GenesisSpec, logger *slog.Logger) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	manager, err := ubistate.NewManager(db)
	if err != nil {
		return nil, err
	}
	n := &Node{
		db:      db,
		state:   manager,
		sink:    events.NoopEmitter{},
		logger:  logger.With(slog.String("component", "node")),
		metrics: metrics.Ledger(),
	}

	accounts, ok, err := genesis.Load(manager)
	if err != nil {
		return nil, err
	}
	if !ok {
		if spec == nil {
			return nil, ErrGenesisRequired
		}
		if accounts, err = genesis.Apply(spec, manager); err != nil {
			return nil, err
		}
		if err := manager.KVPut(heightKey, uint64(0)); err != nil {
			return nil, err
		}
		root, err := manager.Commit()
		if err != nil {
			return nil, fmt.Errorf("core: commit genesis: %w", err)
		}
		n.logger.Info("genesis applied", slog.String("root", hex.EncodeToString(root[:])))
	} else {
		var height uint64
		if _, err := manager.KVGet(heightKey, &height); err != nil {
			return nil, fmt.Errorf("core: load height: %w", err)
		}
		n.height = height
		n.logger.Info("ledger resumed", slog.Uint64("height", height))
	}
	n.accounts = accounts
	return n, nil
}

// SetEventSink configures where events of sealed blocks are delivered.
func (n *Node) SetEventSink(sink events.Emitter) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if sink == nil {
		n.sink = events.NoopEmitter{}
		return
	}
	n.sink = sink
}

// Accounts returns the privileged accounts fixed at genesis.
func (n *Node) Accounts() genesis.Accounts { return n.accounts }

// Height returns the height of the open block.
func (n *Node) Height() uint64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.height
}

// StateRoot returns the root of the last sealed block.
func (n *Node) StateRoot() [32]byte {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.Root()
}

func (n *Node) newEngine(emitter events.Emitter) *ubi.Engine {
	engine := ubi.NewEngine()
	engine.SetState(n.state)
	engine.SetLedger(n.state)
	engine.SetEmitter(emitter)
	engine.SetHeightFunc(func() uint64 { return n.height })
	engine.SetOwner(n.accounts.Owner)
	engine.SetProgramCustody(n.accounts.ProgramCustody)
	engine.SetPlatformCustody(n.accounts.PlatformCustody)
	return engine
}

// execute runs op inside a state snapshot. A failing op is reverted and its
// events are dropped; a successful op adds its events to the open block.
func (n *Node) execute(op string, fn func(*ubi.Engine) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	snapshot := n.state.Snapshot()
	var buffer events.Buffer
	if err := fn(n.newEngine(&buffer)); err != nil {
		n.state.RevertToSnapshot(snapshot)
		buffer.Reset()
		n.metrics.RecordOperation(op, ubi.KindOf(err))
		n.logger.Debug("operation rejected",
			slog.String("operation", op),
			slog.String("kind", ubi.KindOf(err)),
			slog.Any("error", err))
		return err
	}
	buffer.Flush(&n.block)
	n.txCount++
	n.metrics.RecordOperation(op, "ok")
	return nil
}

// view runs a read-only query against the open block.
func (n *Node) view(fn func(*ubi.Engine) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return fn(n.newEngine(events.NoopEmitter{}))
}

// SealBlock commits the open block and opens the next one.
func (n *Node) SealBlock() (*types.BlockInfo, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.sealLocked(n.height + 1)
}

// AdvanceTo seals the open block and opens the block at target, skipping the
// heights in between. It exists for devnets and tests that need to cross
// distribution periods.
func (n *Node) AdvanceTo(target uint64) (*types.BlockInfo, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if target <= n.height {
		return nil, fmt.Errorf("%w: have %d, target %d", ErrHeightNotAhead, n.height, target)
	}
	return n.sealLocked(target)
}

func (n *Node) sealLocked(next uint64) (*types.BlockInfo, error) {
	sealed := n.height
	snapshot := n.state.Snapshot()
	if err := n.state.KVPut(heightKey, next); err != nil {
		return nil, err
	}
	root, err := n.state.Commit()
	if err != nil {
		n.state.RevertToSnapshot(snapshot)
		return nil, err
	}

	emitted := n.block.Events()
	info := &types.BlockInfo{
		Height:    sealed,
		StateRoot: root,
		TxCount:   n.txCount,
		Events:    make([]*types.Event, 0, len(emitted)),
	}
	for _, evt := range emitted {
		if payload, ok := evt.(events.Payload); ok {
			if raw := payload.Event(); raw != nil {
				info.Events = append(info.Events, raw)
			}
		}
	}
	n.block.Reset()
	n.txCount = 0
	n.height = next

	delivery := events.Fanout{observability.Events(), n.sink}
	for _, evt := range emitted {
		delivery.Emit(evt)
	}
	n.metrics.RecordBlock(sealed, info.TxCount)
	n.logger.Debug("block sealed",
		slog.Uint64("height", sealed),
		slog.String("root", hex.EncodeToString(root[:])),
		slog.Int("operations", info.TxCount))
	return info, nil
}

func (n *Node) RegisterRecipient(caller [20]byte, kycHash [32]byte, region string, dependencyScore uint8) (*ubi.Recipient, error) {
	var out *ubi.Recipient
	err := n.execute("registerRecipient", func(engine *ubi.Engine) error {
		if err := ubi.ValidateRecipientInput(region); err != nil {
			return err
		}
		r, err := engine.RegisterRecipient(caller, kycHash, region, dependencyScore)
		out = r
		return err
	})
	if err == nil {
		n.logger.Debug("recipient registered",
			slog.String("recipient", crypto.FormatAddress(caller)),
			logging.MaskField("kycHash", hex.EncodeToString(kycHash[:])))
	}
	return out, err
}

func (n *Node) VerifyRecipient(caller, recipient [20]byte, level ubi.VerificationLevel) (*ubi.Recipient, error) {
	var out *ubi.Recipient
	err := n.execute("verifyRecipient", func(engine *ubi.Engine) error {
		r, err := engine.VerifyRecipient(caller, recipient, level)
		out = r
		return err
	})
	return out, err
}

func (n *Node) RegisterVerifier(caller [20]byte, regionFocus string) (*ubi.Verifier, error) {
	var out *ubi.Verifier
	err := n.execute("registerVerifier", func(engine *ubi.Engine) error {
		if err := ubi.ValidateVerifierInput(regionFocus); err != nil {
			return err
		}
		v, err := engine.RegisterVerifier(caller, regionFocus)
		out = v
		return err
	})
	return out, err
}

func (n *Node) CreateProgram(caller [20]byte, params ubi.ProgramParams) (uint64, error) {
	var id uint64
	err := n.execute("createProgram", func(engine *ubi.Engine) error {
		if err := ubi.ValidateProgramInput(params); err != nil {
			return err
		}
		created, err := engine.CreateProgram(caller, params)
		id = created
		return err
	})
	return id, err
}

func (n *Node) PauseProgram(caller [20]byte, id uint64) error {
	return n.execute("pauseProgram", func(engine *ubi.Engine) error {
		return engine.PauseProgram(caller, id)
	})
}

func (n *Node) Claim(caller [20]byte, programID uint64) (*ubi.Claim, error) {
	var out *ubi.Claim
	err := n.execute("claim", func(engine *ubi.Engine) error {
		claim, err := engine.Claim(caller, programID)
		out = claim
		return err
	})
	if err != nil {
		return nil, err
	}
	n.metrics.RecordPayout(out.Amount)
	return out, nil
}

func (n *Node) Contribute(caller [20]byte, amount *big.Int, targets []uint64) (*ubi.FundingSource, error) {
	var out *ubi.FundingSource
	err := n.execute("contribute", func(engine *ubi.Engine) error {
		if err := ubi.ValidateContributionInput(targets); err != nil {
			return err
		}
		source, err := engine.Contribute(caller, amount, targets)
		out = source
		return err
	})
	return out, err
}

func (n *Node) Recipient(addr [20]byte) (*ubi.Recipient, bool, error) {
	var (
		out *ubi.Recipient
		ok  bool
	)
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		out, ok, err = engine.Recipient(addr)
		return err
	})
	return out, ok, err
}

func (n *Node) Program(id uint64) (*ubi.Program, bool, error) {
	var (
		out *ubi.Program
		ok  bool
	)
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		out, ok, err = engine.Program(id)
		return err
	})
	return out, ok, err
}

func (n *Node) ClaimByID(id uint64) (*ubi.Claim, bool, error) {
	var (
		out *ubi.Claim
		ok  bool
	)
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		out, ok, err = engine.ClaimByID(id)
		return err
	})
	return out, ok, err
}

func (n *Node) Verifier(addr [20]byte) (*ubi.Verifier, bool, error) {
	var (
		out *ubi.Verifier
		ok  bool
	)
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		out, ok, err = engine.Verifier(addr)
		return err
	})
	return out, ok, err
}

func (n *Node) FundingSource(addr [20]byte) (*ubi.FundingSource, bool, error) {
	var (
		out *ubi.FundingSource
		ok  bool
	)
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		out, ok, err = engine.FundingSource(addr)
		return err
	})
	return out, ok, err
}

func (n *Node) Emergency(id uint64) (*ubi.EmergencyDistribution, bool, error) {
	var (
		out *ubi.EmergencyDistribution
		ok  bool
	)
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		out, ok, err = engine.Emergency(id)
		return err
	})
	return out, ok, err
}

func (n *Node) CanClaim(recipient [20]byte, programID uint64) (bool, error) {
	var ok bool
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		ok, err = engine.CanClaim(recipient, programID)
		return err
	})
	return ok, err
}

func (n *Node) ClaimableAmount(recipient [20]byte, programID uint64) (*big.Int, error) {
	var amount *big.Int
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		amount, err = engine.ClaimableAmount(recipient, programID)
		return err
	})
	return amount, err
}

func (n *Node) PlatformStats() (*ubi.PlatformStats, error) {
	var stats *ubi.PlatformStats
	err := n.view(func(engine *ubi.Engine) error {
		var err error
		stats, err = engine.PlatformStats()
		return err
	})
	return stats, err
}

// Balance returns the native balance of addr including unsealed operations.
func (n *Node) Balance(addr [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.Balance(addr)
}
