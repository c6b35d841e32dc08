// Package num wraps the fixed-width numeric types used across the relayer
// so engines never reach for float64 when comparing prices or nonces.
package num

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimal is an arbitrary-precision decimal, used for startPriceEth and
// maxGasPriceEth so price arithmetic never loses precision to float64.
type Decimal = decimal.Decimal

// NewDecimalFromFloat builds a Decimal from a float64 literal, for tests
// and config defaults only; on-chain values should flow through
// DecimalFromString.
func NewDecimalFromFloat(f float64) Decimal {
	return decimal.NewFromFloat(f)
}

// DecimalFromString parses a decimal string, returning an error on
// malformed input rather than silently truncating.
func DecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// ZeroDecimal is the additive identity, used as the floor for
// maxGasPriceEth (spec: "floored at zero").
var ZeroDecimal = decimal.Zero

// Uint is a wrapper over a 256-bit unsigned integer, used for token ids
// and raw wei amounts.
type Uint struct {
	u uint256.Int
}

// NewUint creates a new Uint from a uint64.
func NewUint(v uint64) *Uint {
	return &Uint{*uint256.NewInt(v)}
}

// UintFromBig constructs a Uint from a big.Int, returning true on overflow.
func UintFromBig(b *big.Int) (*Uint, bool) {
	u, overflow := uint256.FromBig(b)
	if overflow {
		return NewUint(0), true
	}
	return &Uint{*u}, false
}

// UintFromString parses a token id string in the given base, returning
// true as the second value on overflow or malformed input.
func UintFromString(s string, base int) (*Uint, bool) {
	if base != 10 {
		i, ok := new(big.Int).SetString(s, base)
		if !ok {
			return NewUint(0), true
		}
		return UintFromBig(i)
	}
	u, err := uint256.FromDecimal(s)
	if err != nil {
		return NewUint(0), true
	}
	return &Uint{*u}, false
}

// String returns the base-10 representation.
func (u *Uint) String() string {
	if u == nil {
		return ""
	}
	return u.u.String()
}

// EQ reports whether u equals other.
func (u *Uint) EQ(other *Uint) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.u.Eq(&other.u)
}

// BigInt returns the value as a big.Int.
func (u *Uint) BigInt() *big.Int {
	return u.u.ToBig()
}
