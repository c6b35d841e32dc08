package nonce

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store is the document-store persistence surface a Provider debounces
// writes to and reads from on (re-)election, implementing the
// matchExecutors/{account}/nonces/{exchange} layout of SPEC_FULL.md §6.
// The default adapter is nonce/mongostore.Store.
type Store interface {
	Load(ctx context.Context, chainID uint64, account, exchange common.Address) (*Record, error)
	Merge(ctx context.Context, rec *Record) error
}
