package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBalanceDefaultsToZero(t *testing.T) {
	manager, _ := newTestManager(t)
	bal, err := manager.Balance(addr(9))
	require.NoError(t, err)
	require.Equal(t, "0", bal.String())

	require.Error(t, manager.SetBalance(addr(9), big.NewInt(-1)))
	require.NoError(t, manager.SetBalance(addr(9), nil))
	bal, err = manager.Balance(addr(9))
	require.NoError(t, err)
	require.Equal(t, "0", bal.String())
}

func TestTransfer(t *testing.T) {
	manager, _ := newTestManager(t)
	alice, bob := addr(1), addr(2)
	require.NoError(t, manager.SetBalance(alice, big.NewInt(100)))

	require.NoError(t, manager.Transfer(alice, bob, big.NewInt(40)))
	aliceBal, err := manager.Balance(alice)
	require.NoError(t, err)
	bobBal, err := manager.Balance(bob)
	require.NoError(t, err)
	require.Equal(t, "60", aliceBal.String())
	require.Equal(t, "40", bobBal.String())

	err = manager.Transfer(alice, bob, big.NewInt(61))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	aliceBal, err = manager.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, "60", aliceBal.String())

	require.ErrorIs(t, manager.Transfer(alice, bob, big.NewInt(0)), ErrInvalidTransfer)
	require.ErrorIs(t, manager.Transfer(alice, bob, nil), ErrInvalidTransfer)
}

func TestSelfTransferIsRejected(t *testing.T) {
	manager, _ := newTestManager(t)
	require.NoError(t, manager.SetBalance(addr(3), big.NewInt(5)))
	require.ErrorIs(t, manager.Transfer(addr(3), addr(3), big.NewInt(5)), ErrSelfTransfer)
	require.ErrorIs(t, manager.Transfer(addr(3), addr(3), big.NewInt(6)), ErrSelfTransfer)
	bal, err := manager.Balance(addr(3))
	require.NoError(t, err)
	require.Equal(t, "5", bal.String())
}
