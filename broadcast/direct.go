package broadcast

import (
	"context"
	"fmt"

	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/orderflow-labs/relayer/logging"
)

const namedLogger = "broadcast"

// SenderClient is the surface Direct needs from an RPC-connected node,
// satisfied by ethclient.Client.
type SenderClient interface {
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// Direct submits straight to a standard JSON-RPC endpoint; this is the
// fork/dev broadcaster path per SPEC_FULL.md §9's open-question
// resolution, used whenever Config.Mode is dev or no flashbots signer key
// is configured.
type Direct struct {
	log    *logging.Logger
	client SenderClient
}

// NewDirect builds a Direct broadcaster over an already-dialed client.
func NewDirect(log *logging.Logger, client SenderClient) *Direct {
	return &Direct{log: log.Named(namedLogger).Named("direct"), client: client}
}

// Broadcast submits signedTx and reports acceptance. opts.TargetBlock is
// informational only for Direct: a standard node either accepts the
// transaction into its mempool or rejects it outright, there is no
// simulate-then-silently-drop step as there is for PrivateRelay.
func (d *Direct) Broadcast(ctx context.Context, signedTx *ethtypes.Transaction, opts Options) (Receipt, error) {
	if err := d.client.SendTransaction(ctx, signedTx); err != nil {
		return Receipt{Status: StatusUnknown}, fmt.Errorf("broadcast: direct send: %w", err)
	}
	d.log.Debug("submitted transaction via direct rpc",
		logging.String("txHash", signedTx.Hash().Hex()),
		logging.Uint64("targetBlock", opts.TargetBlock))
	return Receipt{Status: StatusAccepted, TxHash: signedTx.Hash().Hex()}, nil
}
