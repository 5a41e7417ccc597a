package fpmath

import "math/big"

// 128-bit-wide intermediates. Reserve products (1e9 scale squared) and
// price*spread products overflow 64 bits routinely, so the multiply-then-
// divide helpers below route the numerator through math/big and narrow the
// quotient back with an explicit range check.

// BigMulU64 returns a*b as a big.Int.
func BigMulU64(a, b uint64) *big.Int {
	return new(big.Int).Mul(
		new(big.Int).SetUint64(a),
		new(big.Int).SetUint64(b),
	)
}

// BigMulI64 returns a*b as a big.Int.
func BigMulI64(a, b int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
}

// BigDivToU64 divides num by denom (floor) and narrows to uint64.
func BigDivToU64(num *big.Int, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, ErrDivisionByZero
	}
	q := new(big.Int).Div(num, new(big.Int).SetUint64(denom))
	if q.Sign() < 0 || !q.IsUint64() {
		return 0, ErrCastOverflow
	}
	return q.Uint64(), nil
}

// BigDivToI64 divides num by denom (truncated toward zero, matching native
// signed division) and narrows to int64.
func BigDivToI64(num *big.Int, denom int64) (int64, error) {
	if denom == 0 {
		return 0, ErrDivisionByZero
	}
	q := new(big.Int).Quo(num, big.NewInt(denom))
	if !q.IsInt64() {
		return 0, ErrCastOverflow
	}
	return q.Int64(), nil
}

// MulDivU64 returns a*b/denom with a 128-bit intermediate product.
func MulDivU64(a, b, denom uint64) (uint64, error) {
	return BigDivToU64(BigMulU64(a, b), denom)
}

// MulDivI64 returns a*b/denom with a 128-bit intermediate product.
func MulDivI64(a, b, denom int64) (int64, error) {
	return BigDivToI64(BigMulI64(a, b), denom)
}
