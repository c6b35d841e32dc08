package types

import "github.com/orderflow-labs/relayer/num"

// Match is a proposed pairing of two compatible, opposite-side orders. Its
// id is a pure function of the unordered pair of order ids so the same
// pairing always proposes the same Match, even if discovered from either
// side of the book.
//
// OrderA and OrderB are stored as the literal ordered pair the match was
// constructed from (not re-derivable from MatchID alone) precisely so
// that cascade-delete on a parent order's status change can walk straight
// to the counterpart without guessing — see the open question in
// SPEC_FULL.md §9.
type Match struct {
	ID Hash

	OrderA Hash
	OrderB Hash

	MaxGasPriceEth num.Decimal

	ProposedAt int64
}

// ComputeMatchID derives the deterministic match id from the unordered
// pair of order ids: hash(min(a,b) || max(a,b)).
func ComputeMatchID(a, b Hash) Hash {
	lo, hi := a, b
	if hi.Less(lo) {
		lo, hi = hi, lo
	}
	buf := make([]byte, 0, 64)
	buf = append(buf, lo[:]...)
	buf = append(buf, hi[:]...)
	return hashBytes(buf)
}

// Counterpart returns the order id on the other side of the match from
// the given order id. It panics if orderID is neither OrderA nor OrderB,
// which would indicate a caller bug (the match was looked up under the
// wrong order's match set).
func (m Match) Counterpart(orderID Hash) Hash {
	switch orderID {
	case m.OrderA:
		return m.OrderB
	case m.OrderB:
		return m.OrderA
	default:
		panic("types: order id is not part of this match")
	}
}
