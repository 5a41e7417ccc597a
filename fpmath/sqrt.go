package fpmath

import (
	"math/big"
	"math/bits"
)

// SqrtU64 returns the floor of the square root of x.
//
// Newton's method on integers only: the risk curves depend on this being
// floor-exact so that every evaluator of the same state computes the same
// margin requirement.
func SqrtU64(x uint64) uint64 {
	if x < 2 {
		return x
	}
	// Initial guess: 2^ceil(bits/2) is always >= sqrt(x).
	guess := uint64(1) << ((bits.Len64(x) + 1) / 2)
	for {
		next := (guess + x/guess) / 2
		if next >= guess {
			return guess
		}
		guess = next
	}
}

// SqrtBig returns the floor square root of a non-negative big.Int.
func SqrtBig(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 {
		return nil, ErrOverflow
	}
	return new(big.Int).Sqrt(x), nil
}
