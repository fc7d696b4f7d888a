package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	encoded := FormatAddress(raw)
	require.Contains(t, encoded, "ubi1")

	parsed, err := ParseAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, parsed)
}

func TestParseAddressHex(t *testing.T) {
	parsed, err := ParseAddress("0x00000000000000000000000000000000000000ff")
	require.NoError(t, err)
	require.Equal(t, byte(0xff), parsed[19])

	_, err = ParseAddress("0x1234")
	require.Error(t, err)
}

func TestParseAddressRejectsForeignPrefix(t *testing.T) {
	var raw [20]byte
	raw[0] = 9
	other, err := NewAddress("cosmos", raw[:])
	require.NoError(t, err)

	_, err = ParseAddress(other.String())
	require.Error(t, err)

	_, err = ParseAddress("   ")
	require.Error(t, err)
}
