package nonce

import "github.com/ethereum/go-ethereum/common"

// Record is the persisted (chainId, account, exchange) -> nonce mapping
// from SPEC_FULL.md §3/§6. It is monotonically non-decreasing; the
// authoritative copy lives in Store, with the Provider's in-memory value
// authoritative while it holds the lease.
type Record struct {
	ChainID   uint64
	Account   common.Address
	Exchange  common.Address
	Nonce     uint64
	UpdatedAt int64
}
