package execution

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/orderflow-labs/relayer/broadcast"
	"github.com/orderflow-labs/relayer/types"
)

// Submission is the bookkeeping record for one match that reached the
// broadcaster, per SPEC_FULL.md §4.3.
type Submission struct {
	MatchID  types.Hash
	Exchange common.Address
	Nonce    uint64
	TxHash   string
	Status   broadcast.Status
}
