package state

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"ubichain/storage"
)

var (
	statePrefix = []byte("s/")
	rootKey     = []byte("meta/state-root")
)

// Manager provides read and write access to ledger state. Writes are kept in
// a dirty overlay and journalled so that a failed transaction can be reverted
// to a snapshot; Commit flushes the overlay to the database as one batch.
//
// Manager is not safe for concurrent use.
type Manager struct {
	db      storage.Database
	dirty   map[string][]byte
	journal []journalEntry
	root    [32]byte
}

type journalEntry struct {
	key     string
	prev    []byte
	hadPrev bool
}

// NewManager creates a state manager operating on the provided database and
// loads the last committed state root.
func NewManager(db storage.Database) (*Manager, error) {
	if db == nil {
		return nil, fmt.Errorf("state: database must not be nil")
	}
	m := &Manager{db: db, dirty: make(map[string][]byte)}
	raw, err := db.Get(rootKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("state: load root: %w", err)
	default:
		copy(m.root[:], raw)
	}
	return m, nil
}

func kvKey(key []byte) string {
	hashed := ethcrypto.Keccak256(key)
	buf := make([]byte, len(statePrefix)+len(hashed))
	copy(buf, statePrefix)
	copy(buf[len(statePrefix):], hashed)
	return string(buf)
}

func (m *Manager) read(key string) ([]byte, error) {
	if value, ok := m.dirty[key]; ok {
		return value, nil
	}
	value, err := m.db.Get([]byte(key))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (m *Manager) write(key string, value []byte) {
	prev, had := m.dirty[key]
	m.journal = append(m.journal, journalEntry{key: key, prev: prev, hadPrev: had})
	m.dirty[key] = value
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.write(kvKey(key), encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.read(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVExists reports whether a value is stored under the supplied key.
func (m *Manager) KVExists(key []byte) (bool, error) {
	return m.KVGet(key, nil)
}

// Snapshot returns an identifier for the current write position.
func (m *Manager) Snapshot() int {
	return len(m.journal)
}

// RevertToSnapshot undoes every write made after the snapshot was taken.
func (m *Manager) RevertToSnapshot(id int) {
	if id < 0 || id > len(m.journal) {
		return
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		entry := m.journal[i]
		if entry.hadPrev {
			m.dirty[entry.key] = entry.prev
		} else {
			delete(m.dirty, entry.key)
		}
	}
	m.journal = m.journal[:id]
}

// Pending reports the number of keys written since the last commit.
func (m *Manager) Pending() int {
	return len(m.dirty)
}

// Root returns the last committed state root.
func (m *Manager) Root() [32]byte {
	return m.root
}

// Commit writes the dirty overlay to the database atomically and returns the
// new state root. The root chains the previous root with every written key and
// value digest in key order, so replicas applying the same writes agree on it.
func (m *Manager) Commit() ([32]byte, error) {
	if len(m.dirty) == 0 {
		return m.root, nil
	}
	keys := make([]string, 0, len(m.dirty))
	for key := range m.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(m.root[:])
	batch := m.db.NewBatch()
	for _, key := range keys {
		value := m.dirty[key]
		batch.Put([]byte(key), value)
		buf.WriteString(key)
		buf.Write(ethcrypto.Keccak256(value))
	}
	var root [32]byte
	copy(root[:], ethcrypto.Keccak256(buf.Bytes()))
	batch.Put(rootKey, root[:])
	if err := batch.Write(); err != nil {
		return m.root, fmt.Errorf("state: commit: %w", err)
	}
	m.root = root
	m.dirty = make(map[string][]byte)
	m.journal = nil
	return root, nil
}
