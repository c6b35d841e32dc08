package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orderflow-labs/relayer/num"
)

// Side is which direction of the book an order sits on.
type Side uint8

const (
	// SideUnspecified is the zero value; never a valid order side.
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unspecified"
	}
}

// Scope is the asset scope an order is quoted over.
type Scope uint8

const (
	ScopeUnspecified Scope = iota
	ScopeSingleToken
	ScopeCollectionWide
)

func (s Scope) String() string {
	switch s {
	case ScopeSingleToken:
		return "single-token"
	case ScopeCollectionWide:
		return "collection-wide"
	default:
		return "unspecified"
	}
}

// Order is the normalized representation of a signed marketplace order,
// plus the attributes derived at ingestion time. Everything but Status is
// immutable after construction.
type Order struct {
	ID      Hash
	ChainID uint64

	Side  Side
	Scope Scope

	// Marketplace and Kind identify which external marketplace encoded
	// this order and in which shape, per spec.md §6's enablement table
	// (e.g. "seaport"/"single-token"). Plain strings rather than the
	// marketplaces package's typed Marketplace/OrderKind to avoid types
	// importing marketplaces, which itself depends on types.Order for
	// its Builder interface.
	Marketplace string
	Kind        string

	Collection common.Address
	// TokenID is nil for collection-wide orders.
	TokenID *num.Uint

	Complication common.Address
	// Currency is the zero address for the chain's native currency.
	Currency common.Address

	StartPriceEth num.Decimal

	StartTime int64
	EndTime   int64

	Signer common.Address

	// Nonce is the order's own marketplace-level cancellation nonce, not
	// the execution transaction nonce allocated by the Nonce Provider. It
	// is compared against the exchange's userMinOrderNonce watermark to
	// detect mass-cancellation at execution time.
	Nonce uint64

	// RawPayload is the opaque, marketplace-encoded signed payload handed
	// unmodified to the execution engine's builder for on-chain submission.
	RawPayload []byte

	Status OrderStatus
}

// Validate enforces the data-model invariants spec'd for Order: a
// non-negative price, a sane time window, and a token id that agrees with
// the declared scope.
func (o *Order) Validate() error {
	if o.StartPriceEth.IsNegative() {
		return fmt.Errorf("%w: startPriceEth must be >= 0", ErrValidation)
	}
	if o.StartTime > o.EndTime {
		return fmt.Errorf("%w: startTime must be <= endTime", ErrValidation)
	}
	switch o.Scope {
	case ScopeSingleToken:
		if o.TokenID == nil {
			return fmt.Errorf("%w: single-token order missing tokenId", ErrValidation)
		}
	case ScopeCollectionWide:
		if o.Side == SideSell {
			return fmt.Errorf("%w: collection-wide sell orders are not supported", ErrValidation)
		}
		if o.TokenID != nil {
			return fmt.Errorf("%w: collection-wide order must not carry a tokenId", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unspecified asset scope", ErrValidation)
	}
	if o.Side == SideUnspecified {
		return fmt.Errorf("%w: unspecified side", ErrValidation)
	}
	if o.Marketplace == "" || o.Kind == "" {
		return fmt.Errorf("%w: order missing marketplace or kind", ErrValidation)
	}
	return nil
}

// CanonicalEncoding returns the fixed-field-ordering byte encoding used to
// derive the order id. It intentionally excludes RawPayload and Status:
// the id identifies the economic terms of the order, not its wire
// encoding or lifecycle state.
func (o *Order) CanonicalEncoding() []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, byte(o.Side), byte(o.Scope))
	buf = appendUint64(buf, o.ChainID)
	buf = append(buf, []byte(o.Marketplace)...)
	buf = append(buf, []byte(o.Kind)...)
	buf = append(buf, o.Collection.Bytes()...)
	if o.TokenID != nil {
		buf = append(buf, []byte(o.TokenID.String())...)
	}
	buf = append(buf, o.Complication.Bytes()...)
	buf = append(buf, o.Currency.Bytes()...)
	buf = append(buf, []byte(o.StartPriceEth.String())...)
	buf = appendUint64(buf, uint64(o.StartTime))
	buf = appendUint64(buf, uint64(o.EndTime))
	buf = append(buf, o.Signer.Bytes()...)
	buf = appendUint64(buf, o.Nonce)
	return buf
}

// ComputeID derives the deterministic order id from the canonical
// encoding. Calling it twice on the same (unmutated) order yields the
// same id, per the Order data-model invariant.
func (o *Order) ComputeID() Hash {
	return hashBytes(o.CanonicalEncoding())
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 7; i >= 0; i-- {
		tmp[i] = byte(v)
		v >>= 8
	}
	return append(buf, tmp[:]...)
}
