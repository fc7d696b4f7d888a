// core/genesis/spec.go
package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"ubichain/crypto"
)

// GenesisSpec is the JSON document that seeds an empty ledger.
type GenesisSpec struct {
	Owner           string            `json:"owner"`
	ProgramCustody  string            `json:"programCustody"`
	PlatformCustody string            `json:"platformCustody"`
	Alloc           map[string]string `json:"alloc"` // addr -> amount

	owner           [20]byte
	programCustody  [20]byte
	platformCustody [20]byte
	alloc           []Allocation
}

// Allocation is a validated initial balance.
type Allocation struct {
	Address [20]byte
	Amount  *big.Int
}

func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a genesis document. Unknown fields
// are rejected.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

func (s *GenesisSpec) OwnerAddress() [20]byte           { return s.owner }
func (s *GenesisSpec) ProgramCustodyAddress() [20]byte  { return s.programCustody }
func (s *GenesisSpec) PlatformCustodyAddress() [20]byte { return s.platformCustody }

// Allocations returns the initial balances ordered by address.
func (s *GenesisSpec) Allocations() []Allocation {
	out := make([]Allocation, len(s.alloc))
	for i, a := range s.alloc {
		out[i] = Allocation{Address: a.Address, Amount: new(big.Int).Set(a.Amount)}
	}
	return out
}

func (s *GenesisSpec) validate() error {
	var err error
	if s.owner, err = requireAddress("owner", s.Owner); err != nil {
		return err
	}
	if s.programCustody, err = requireAddress("programCustody", s.ProgramCustody); err != nil {
		return err
	}
	if s.platformCustody, err = requireAddress("platformCustody", s.PlatformCustody); err != nil {
		return err
	}
	if s.programCustody == s.platformCustody {
		return fmt.Errorf("programCustody and platformCustody must differ")
	}

	accounts := make([]string, 0, len(s.Alloc))
	for account := range s.Alloc {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	seen := make(map[[20]byte]string, len(accounts))
	s.alloc = s.alloc[:0]
	for _, account := range accounts {
		addr, err := crypto.ParseAddress(account)
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", account, err)
		}
		if prev, dup := seen[addr]; dup {
			return fmt.Errorf("alloc[%q]: duplicates %q", account, prev)
		}
		seen[addr] = account
		raw := strings.TrimSpace(s.Alloc[account])
		if raw == "" {
			return fmt.Errorf("alloc[%q]: amount must be provided", account)
		}
		amount, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return fmt.Errorf("alloc[%q]: invalid amount %q", account, raw)
		}
		if amount.Sign() < 0 {
			return fmt.Errorf("alloc[%q]: amount must not be negative", account)
		}
		s.alloc = append(s.alloc, Allocation{Address: addr, Amount: amount})
	}
	sort.Slice(s.alloc, func(i, j int) bool {
		return bytes.Compare(s.alloc[i].Address[:], s.alloc[j].Address[:]) < 0
	})
	return nil
}

func requireAddress(field, value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, fmt.Errorf("%s must be provided", field)
	}
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}
