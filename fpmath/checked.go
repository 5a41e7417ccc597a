// Package fpmath provides overflow-checked fixed-point integer arithmetic.
//
// All operations either return an exact result or fail with ErrOverflow /
// ErrDivisionByZero; nothing wraps or truncates silently. Wide intermediate
// products go through math/big so that independent evaluators of identical
// state produce bit-identical results.
package fpmath

import (
	"errors"
	"math"
)

var (
	// ErrOverflow is returned when a result does not fit its fixed width.
	ErrOverflow = errors.New("fpmath: arithmetic overflow")
	// ErrDivisionByZero is returned on any division with a zero denominator.
	ErrDivisionByZero = errors.New("fpmath: division by zero")
	// ErrCastOverflow is returned when a width cast would lose range.
	ErrCastOverflow = errors.New("fpmath: cast out of range")
)

// AddU64 returns a+b or ErrOverflow.
func AddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SubU64 returns a-b or ErrOverflow when b > a.
func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulU64 returns a*b or ErrOverflow.
func MulU64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	prod := a * b
	if prod/a != b {
		return 0, ErrOverflow
	}
	return prod, nil
}

// DivU64 returns a/b (floor) or ErrDivisionByZero.
func DivU64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// AddI64 returns a+b or ErrOverflow.
func AddI64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SubI64 returns a-b or ErrOverflow.
func SubI64(a, b int64) (int64, error) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, ErrOverflow
	}
	return diff, nil
}

// MulI64 returns a*b or ErrOverflow.
func MulI64(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	prod := a * b
	if prod/b != a || (a == math.MinInt64 && b == -1) {
		return 0, ErrOverflow
	}
	return prod, nil
}

// DivI64 returns a/b (truncated toward zero) or an error. MinInt64 / -1 is
// the one signed quotient that does not fit and is reported as overflow.
func DivI64(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == math.MinInt64 && b == -1 {
		return 0, ErrOverflow
	}
	return a / b, nil
}

// AbsI64 returns |a| as uint64. Safe for MinInt64.
func AbsI64(a int64) uint64 {
	if a >= 0 {
		return uint64(a)
	}
	return uint64(-(a + 1)) + 1
}

// CastU64ToI64 narrows a uint64 into the signed range.
func CastU64ToI64(a uint64) (int64, error) {
	if a > math.MaxInt64 {
		return 0, ErrCastOverflow
	}
	return int64(a), nil
}

// CastI64ToU64 rejects negative values.
func CastI64ToU64(a int64) (uint64, error) {
	if a < 0 {
		return 0, ErrCastOverflow
	}
	return uint64(a), nil
}

// CastU64ToU32 narrows to 32 bits.
func CastU64ToU32(a uint64) (uint32, error) {
	if a > math.MaxUint32 {
		return 0, ErrCastOverflow
	}
	return uint32(a), nil
}

// MaxU64 returns the larger of a and b.
func MaxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// MinU64 returns the smaller of a and b.
func MinU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// MaxI64 returns the larger of a and b.
func MaxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
