// core/genesis/spec_test.go
package genesis

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ubichain/core/state"
	"ubichain/crypto"
	"ubichain/storage"
)

func testAddress(fill byte) string {
	var raw [20]byte
	copy(raw[:], bytes.Repeat([]byte{fill}, 20))
	return crypto.FormatAddress(raw)
}

func writeSpec(t *testing.T, spec any) string {
	t.Helper()
	data, err := json.MarshalIndent(spec, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func validSpec() GenesisSpec {
	return GenesisSpec{
		Owner:           testAddress(0x01),
		ProgramCustody:  testAddress(0x02),
		PlatformCustody: testAddress(0x03),
		Alloc: map[string]string{
			testAddress(0x11): "5000",
			testAddress(0x10): "1000",
		},
	}
}

func TestLoadGenesisSpecAndApply(t *testing.T) {
	path := writeSpec(t, validSpec())
	loaded, err := LoadGenesisSpec(path)
	require.NoError(t, err)

	allocs := loaded.Allocations()
	require.Len(t, allocs, 2)
	require.Equal(t, byte(0x10), allocs[0].Address[0])
	require.Equal(t, "1000", allocs[0].Amount.String())
	require.Equal(t, byte(0x11), allocs[1].Address[0])

	manager, err := state.NewManager(storage.NewMemDB())
	require.NoError(t, err)
	accounts, err := Apply(loaded, manager)
	require.NoError(t, err)
	require.Equal(t, loaded.OwnerAddress(), accounts.Owner)
	require.Equal(t, byte(0x02), accounts.ProgramCustody[0])
	require.Equal(t, byte(0x03), accounts.PlatformCustody[0])

	bal, err := manager.Balance(allocs[1].Address)
	require.NoError(t, err)
	require.Equal(t, "5000", bal.String())

	_, err = manager.Commit()
	require.NoError(t, err)
	recovered, ok, err := Load(manager)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, accounts, recovered)

	_, err = Apply(loaded, manager)
	require.ErrorIs(t, err, ErrAlreadyApplied)
}

func TestGenesisRootIsDeterministic(t *testing.T) {
	spec := validSpec()
	roots := make([][32]byte, 0, 2)
	for i := 0; i < 2; i++ {
		parsed, err := ParseGenesisSpec(mustJSON(t, spec))
		require.NoError(t, err)
		manager, err := state.NewManager(storage.NewMemDB())
		require.NoError(t, err)
		_, err = Apply(parsed, manager)
		require.NoError(t, err)
		root, err := manager.Commit()
		require.NoError(t, err)
		roots = append(roots, root)
	}
	require.Equal(t, roots[0], roots[1])
}

func TestGenesisSpecAcceptsHexAddresses(t *testing.T) {
	spec := validSpec()
	spec.Owner = "0x00000000000000000000000000000000000000aa"
	parsed, err := ParseGenesisSpec(mustJSON(t, spec))
	require.NoError(t, err)
	owner := parsed.OwnerAddress()
	require.Equal(t, byte(0xaa), owner[19])
}

func TestGenesisSpecValidation(t *testing.T) {
	cases := map[string]func(*GenesisSpec){
		"missing owner":     func(s *GenesisSpec) { s.Owner = "" },
		"bad custody":       func(s *GenesisSpec) { s.ProgramCustody = "not-an-address" },
		"same custody":      func(s *GenesisSpec) { s.PlatformCustody = s.ProgramCustody },
		"empty amount":      func(s *GenesisSpec) { s.Alloc[testAddress(0x10)] = " " },
		"invalid amount":    func(s *GenesisSpec) { s.Alloc[testAddress(0x10)] = "12abc" },
		"negative amount":   func(s *GenesisSpec) { s.Alloc[testAddress(0x10)] = "-4" },
		"bad alloc address": func(s *GenesisSpec) { s.Alloc["nope"] = "1" },
		"duplicate account": func(s *GenesisSpec) {
			s.Alloc["0x1010101010101010101010101010101010101010"] = "7"
		},
	}
	for name, mutate := range cases {
		spec := validSpec()
		mutate(&spec)
		_, err := ParseGenesisSpec(mustJSON(t, spec))
		require.Error(t, err, name)
	}
}

func TestGenesisSpecRejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"owner":"` + testAddress(1) + `","programCustody":"` + testAddress(2) +
		`","platformCustody":"` + testAddress(3) + `","validators":[]}`)
	_, err := ParseGenesisSpec(raw)
	require.Error(t, err)
}

func TestLoadGenesisSpecRequiresPath(t *testing.T) {
	_, err := LoadGenesisSpec(" ")
	require.Error(t, err)
	_, err = LoadGenesisSpec(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
