// Package numeric provides fixed-width unsigned arithmetic for settlement
// math. All pool and payout formulas run on U128 values; anything that would
// wrap, underflow, or divide by zero is reported as an error instead of being
// silently tolerated.
package numeric

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrOverflow     = errors.New("numeric: value exceeds 128 bits")
	ErrUnderflow    = errors.New("numeric: subtraction underflow")
	ErrDivideByZero = errors.New("numeric: division by zero")
	ErrNotUnsigned  = errors.New("numeric: value is negative")
	ErrNotInteger   = errors.New("numeric: value is not an integer")
)

// U128 is an unsigned 128-bit integer. The zero value is 0 and ready to use.
//
// It is backed by a uint256.Int whose upper 128 bits are always zero; every
// operation that could produce a wider result checks that constraint.
type U128 struct {
	v uint256.Int
}

func fits128(v *uint256.Int) bool {
	return v[2] == 0 && v[3] == 0
}

// Zero returns the U128 zero value.
func Zero() U128 {
	return U128{}
}

// FromUint64 converts a uint64 to a U128.
func FromUint64(u uint64) U128 {
	var out U128
	out.v.SetUint64(u)
	return out
}

// FromDecimal converts a stored decimal amount to a U128. The decimal must be
// a non-negative integer that fits in 128 bits; stored amounts that violate
// this indicate corrupted state, not caller error.
func FromDecimal(d decimal.Decimal) (U128, error) {
	if d.IsNegative() {
		return U128{}, ErrNotUnsigned
	}
	if !d.IsInteger() {
		return U128{}, ErrNotInteger
	}
	var out U128
	if overflow := out.v.SetFromBig(d.BigInt()); overflow || !fits128(&out.v) {
		return U128{}, ErrOverflow
	}
	return out, nil
}

// MustFromDecimal is FromDecimal for values known to be valid, such as
// test fixtures and configuration defaults. It panics on conversion failure.
func MustFromDecimal(d decimal.Decimal) U128 {
	out, err := FromDecimal(d)
	if err != nil {
		panic(err)
	}
	return out
}

// Decimal converts the value back to a decimal for storage.
func (u U128) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(u.v.ToBig(), 0)
}

func (u U128) String() string {
	return u.v.Dec()
}

// IsZero reports whether the value is 0.
func (u U128) IsZero() bool {
	return u.v.IsZero()
}

// Cmp returns -1, 0, or 1 depending on whether u is less than, equal to, or
// greater than other.
func (u U128) Cmp(other U128) int {
	return u.v.Cmp(&other.v)
}

// Lt reports u < other.
func (u U128) Lt(other U128) bool {
	return u.v.Lt(&other.v)
}

// Gt reports u > other.
func (u U128) Gt(other U128) bool {
	return u.v.Gt(&other.v)
}

// Add returns u + other, or ErrOverflow if the sum exceeds 128 bits.
func (u U128) Add(other U128) (U128, error) {
	var out U128
	out.v.Add(&u.v, &other.v)
	if !fits128(&out.v) {
		return U128{}, ErrOverflow
	}
	return out, nil
}

// Sub returns u - other, or ErrUnderflow if other > u.
func (u U128) Sub(other U128) (U128, error) {
	if u.v.Lt(&other.v) {
		return U128{}, ErrUnderflow
	}
	var out U128
	out.v.Sub(&u.v, &other.v)
	return out, nil
}

// Mul returns u * other, or ErrOverflow if the product exceeds 128 bits.
func (u U128) Mul(other U128) (U128, error) {
	var out U128
	out.v.Mul(&u.v, &other.v)
	if !fits128(&out.v) {
		return U128{}, ErrOverflow
	}
	return out, nil
}

// Div returns floor(u / other), or ErrDivideByZero.
func (u U128) Div(other U128) (U128, error) {
	if other.v.IsZero() {
		return U128{}, ErrDivideByZero
	}
	var out U128
	out.v.Div(&u.v, &other.v)
	return out, nil
}

// MulDiv returns floor(u * mul / div) with the multiply checked to 128 bits.
func (u U128) MulDiv(mul, div U128) (U128, error) {
	p, err := u.Mul(mul)
	if err != nil {
		return U128{}, err
	}
	return p.Div(div)
}
