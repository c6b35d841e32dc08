// Package broadcast delivers a signed transaction to the network with a
// target inclusion window, per SPEC_FULL.md §4.5. Two variants share one
// contract: Direct submits straight to a JSON-RPC endpoint; PrivateRelay
// submits a single-transaction bundle to a private-mempool relay.
package broadcast

import (
	"context"
	"errors"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Status is the outcome of a Broadcast call.
type Status int

const (
	StatusUnknown Status = iota
	// StatusAccepted means the network (or relay simulation) accepted the
	// transaction; for PrivateRelay this does not yet mean inclusion.
	StatusAccepted
	// StatusDropped means a PrivateRelay bundle was not included by its
	// target block. This is not an error per spec.md §7
	// (SubmissionDropped): the caller decides whether to retry. The
	// execution engine also records StatusDropped for a submission whose
	// Broadcast call returned an error.
	StatusDropped
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// ErrSimulationFailed is returned by PrivateRelay when the relay rejects
// a bundle at simulation time, before it is ever broadcast.
var ErrSimulationFailed = errors.New("broadcast: relay simulation failed")

// Options carries the target inclusion window for a submission.
type Options struct {
	// TargetBlock is the block number the submission should land in:
	// current+2 by default for both variants (SPEC_FULL.md §4.3/§4.5).
	TargetBlock uint64
}

// Receipt is the outcome of one Broadcast call.
type Receipt struct {
	Status Status
	TxHash string
}

// Broadcaster delivers a signed transaction to the network. Implementations
// are stateless: retry policy belongs to the caller (the Execution Engine).
type Broadcaster interface {
	Broadcast(ctx context.Context, signedTx *ethtypes.Transaction, opts Options) (Receipt, error)
}
