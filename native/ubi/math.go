package ubi

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var hundred = uint256.NewInt(100)

// ScaledAmount applies the dependency multiplier: base × (100 + score) / 100,
// truncating. Amounts that do not fit in 256 bits are rejected.
func ScaledAmount(base *big.Int, score uint8) (*big.Int, error) {
	if base == nil || base.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if score > MaxDependencyScore {
		return nil, ErrInvalidAmount
	}
	b, overflow := uint256.FromBig(base)
	if overflow {
		return nil, ErrInvalidAmount
	}
	factor := uint256.NewInt(100 + uint64(score))
	product, overflow := new(uint256.Int).MulOverflow(b, factor)
	if overflow {
		return nil, ErrInvalidAmount
	}
	return product.Div(product, hundred).ToBig(), nil
}

// claimHash digests the recipient, amount and period of a claim for audit.
func claimHash(recipient [20]byte, amount *big.Int, period uint64) [32]byte {
	buf := make([]byte, 0, 20+32+8)
	buf = append(buf, recipient[:]...)
	var amt [32]byte
	if amount != nil {
		amount.FillBytes(amt[:])
	}
	buf = append(buf, amt[:]...)
	var p [8]byte
	binary.BigEndian.PutUint64(p[:], period)
	buf = append(buf, p[:]...)
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(buf))
	return out
}
