package fulfillment

import "vamm-core/market"

// JITQuoter sizes a just-in-time AMM quote for a taker whose flow the curve
// wants to absorb. The sizing formula lives outside this core; callers plug
// in their own model.
//
// Contract: Quote is called only when the AMM's net exposure sign favors
// absorbing the taker and the market's JIT intensity is nonzero. A returned
// size of zero declines the quote and no step is emitted. A nonzero size
// yields one explicit-priced, explicit-sized AMM step, distinct from the
// open-ended trailing AMM step. Quote must not mutate the AMM snapshot.
type JITQuoter interface {
	Quote(amm *market.AMM, taker Order, oraclePrice int64) (price uint64, size uint64, err error)
}

// NoJIT declines every quote. It is the default when no sizing model is
// wired in.
type NoJIT struct{}

// Quote implements JITQuoter.
func (NoJIT) Quote(*market.AMM, Order, int64) (uint64, uint64, error) {
	return 0, 0, nil
}
