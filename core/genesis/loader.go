// core/genesis/loader.go
package genesis

import (
	"errors"
	"fmt"

	"ubichain/core/state"
)

var markerKey = []byte("genesis/applied")

// ErrAlreadyApplied is returned when genesis is applied to a seeded ledger.
var ErrAlreadyApplied = errors.New("genesis: already applied")

// Accounts are the privileged addresses fixed at genesis. They are stored
// with the genesis marker so a restarted node can recover them without the
// original document.
type Accounts struct {
	Owner           [20]byte
	ProgramCustody  [20]byte
	PlatformCustody [20]byte
}

// Apply writes the initial balances and the genesis marker into the pending
// write set of manager. The caller commits.
func Apply(spec *GenesisSpec, manager *state.Manager) (Accounts, error) {
	if spec == nil {
		return Accounts{}, fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return Accounts{}, fmt.Errorf("state manager must not be nil")
	}
	if _, ok, err := Load(manager); err != nil {
		return Accounts{}, err
	} else if ok {
		return Accounts{}, ErrAlreadyApplied
	}

	// Allocations are sorted by address so the resulting root is stable.
	for _, alloc := range spec.Allocations() {
		if err := manager.SetBalance(alloc.Address, alloc.Amount); err != nil {
			return Accounts{}, fmt.Errorf("alloc %x: %w", alloc.Address, err)
		}
	}
	accounts := Accounts{
		Owner:           spec.OwnerAddress(),
		ProgramCustody:  spec.ProgramCustodyAddress(),
		PlatformCustody: spec.PlatformCustodyAddress(),
	}
	if err := manager.KVPut(markerKey, &accounts); err != nil {
		return Accounts{}, fmt.Errorf("persist genesis marker: %w", err)
	}
	return accounts, nil
}

// Load returns the accounts recorded by a previous Apply.
func Load(manager *state.Manager) (Accounts, bool, error) {
	var accounts Accounts
	ok, err := manager.KVGet(markerKey, &accounts)
	if err != nil {
		return Accounts{}, false, fmt.Errorf("load genesis marker: %w", err)
	}
	if !ok {
		return Accounts{}, false, nil
	}
	return accounts, true, nil
}
