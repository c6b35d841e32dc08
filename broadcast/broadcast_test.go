package broadcast_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow-labs/relayer/broadcast"
	"github.com/orderflow-labs/relayer/logging"
)

func signedTx(t *testing.T) *types.Transaction {
	t.Helper()
	return types.NewTx(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(1),
		Gas:      21000,
		Value:    big.NewInt(0),
	})
}

type fakeSender struct {
	err error
}

func (f fakeSender) SendTransaction(context.Context, *types.Transaction) error {
	return f.err
}

func TestDirect_BroadcastAcceptsOnSuccess(t *testing.T) {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	d := broadcast.NewDirect(log, fakeSender{})

	rcpt, err := d.Broadcast(context.Background(), signedTx(t), broadcast.Options{TargetBlock: 100})
	require.NoError(t, err)
	assert.Equal(t, broadcast.StatusAccepted, rcpt.Status)
	assert.NotEmpty(t, rcpt.TxHash)
}

func TestDirect_BroadcastWrapsSendError(t *testing.T) {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	d := broadcast.NewDirect(log, fakeSender{err: errors.New("boom")})

	_, err := d.Broadcast(context.Background(), signedTx(t), broadcast.Options{})
	assert.Error(t, err)
}

type fakeRPC struct {
	callErr error
}

func (f fakeRPC) CallContext(context.Context, interface{}, string, ...interface{}) error {
	return f.callErr
}

func TestPrivateRelay_BroadcastAcceptsOnSuccess(t *testing.T) {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	r := broadcast.NewPrivateRelay(log, fakeRPC{})

	rcpt, err := r.Broadcast(context.Background(), signedTx(t), broadcast.Options{TargetBlock: 42})
	require.NoError(t, err)
	assert.Equal(t, broadcast.StatusAccepted, rcpt.Status)
}

func TestPrivateRelay_BroadcastWrapsSimulationFailure(t *testing.T) {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	r := broadcast.NewPrivateRelay(log, fakeRPC{callErr: errors.New("simulation reverted")})

	_, err := r.Broadcast(context.Background(), signedTx(t), broadcast.Options{TargetBlock: 42})
	assert.ErrorIs(t, err, broadcast.ErrSimulationFailed)
}
