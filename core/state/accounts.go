package state

import (
	"errors"
	"fmt"
	"math/big"
)

var balancePrefix = []byte("account/balance/")

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's
	// balance.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrInvalidTransfer marks transfers with a nil, zero or negative amount.
	ErrInvalidTransfer = errors.New("state: transfer amount must be positive")
	// ErrSelfTransfer marks transfers whose source and destination match.
	ErrSelfTransfer = errors.New("state: transfer source and destination must differ")
)

func balanceKey(addr [20]byte) []byte {
	buf := make([]byte, len(balancePrefix)+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], addr[:])
	return buf
}

// Balance returns the native balance held by addr. Unknown accounts hold zero.
func (m *Manager) Balance(addr [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.KVGet(balanceKey(addr), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetBalance overwrites the native balance held by addr.
func (m *Manager) SetBalance(addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative balance not allowed")
	}
	return m.KVPut(balanceKey(addr), amount)
}

// Transfer moves amount from one account to another. Both balances are read
// before either is written, so a failure leaves state untouched.
func (m *Manager) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}
	if from == to {
		return ErrSelfTransfer
	}
	fromBal, err := m.Balance(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBal, amount)
	}
	toBal, err := m.Balance(to)
	if err != nil {
		return err
	}
	if err := m.SetBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return m.SetBalance(to, new(big.Int).Add(toBal, amount))
}
