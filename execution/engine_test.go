package execution_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/orderflow-labs/relayer/broadcast"
	"github.com/orderflow-labs/relayer/execution"
	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/marketplaces"
	"github.com/orderflow-labs/relayer/metrics"
	"github.com/orderflow-labs/relayer/nonce"
	"github.com/orderflow-labs/relayer/num"
	"github.com/orderflow-labs/relayer/orderbook"
	"github.com/orderflow-labs/relayer/types"
)

const testChainID = 1

type fakeChain struct {
	watermark *big.Int
	height    uint64
	gasPrice  *big.Int
}

func (f *fakeChain) UserMinOrderNonce(context.Context, common.Address, common.Address) (*big.Int, error) {
	return f.watermark, nil
}

func (f *fakeChain) HeaderByNumber(context.Context, *big.Int) (*ethtypes.Header, error) {
	return &ethtypes.Header{Number: new(big.Int).SetUint64(f.height)}, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

type fakeBroadcaster struct {
	receipt broadcast.Receipt
	err     error
}

func (f *fakeBroadcaster) Broadcast(context.Context, *ethtypes.Transaction, broadcast.Options) (broadcast.Receipt, error) {
	return f.receipt, f.err
}

type fakeNonceStore struct{}

func (fakeNonceStore) Load(context.Context, uint64, common.Address, common.Address) (*nonce.Record, error) {
	return nil, nonce.ErrNoRecord
}

func (fakeNonceStore) Merge(context.Context, *nonce.Record) error { return nil }

func newTestEngine(t *testing.T, watermark uint64) (*execution.Engine, *orderbook.Storage, *ecdsa.PrivateKey, common.Address) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	store := orderbook.NewStorage(log, client, testChainID)

	exchange := common.HexToAddress("0x4444444444444444444444444444444444444444")

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	account := crypto.PubkeyToAddress(key.PublicKey)

	provider := nonce.NewProvider(log, nonce.NewDefaultConfig(), client, fakeNonceStore{}, &fakeChain{watermark: new(big.Int).SetUint64(watermark)}, testChainID, account, exchange)
	require.NoError(t, provider.Run(context.Background()))
	t.Cleanup(func() { _ = provider.Close(context.Background()) })

	chain := &fakeChain{
		watermark: new(big.Int).SetUint64(watermark),
		height:    100,
		gasPrice:  big.NewInt(10),
	}

	dispatcher := marketplaces.NewDispatcher(marketplaces.DefaultEnablementTable(), marketplaces.NewDefaultRegistry())

	m := metrics.NewForTesting()
	bc := &fakeBroadcaster{receipt: broadcast.Receipt{Status: broadcast.StatusAccepted, TxHash: "0xdeadbeef"}}

	engine := execution.NewEngine(log, execution.NewDefaultConfig(), store, dispatcher,
		map[common.Address]*nonce.Provider{exchange: provider}, chain, bc, m, key, testChainID)

	return engine, store, key, exchange
}

func order(t *testing.T, side types.Side, nonceVal uint64, exchange common.Address, tokenID string) *types.Order {
	t.Helper()
	tok, overflowed := num.UintFromString(tokenID, 10)
	require.False(t, overflowed)

	o := &types.Order{
		ChainID:       testChainID,
		Side:          side,
		Scope:         types.ScopeSingleToken,
		Marketplace:   "seaport",
		Kind:          "single-token",
		Collection:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenID:       tok,
		Complication:  exchange,
		Currency:      common.Address{},
		StartPriceEth: num.NewDecimalFromFloat(1),
		StartTime:     0,
		EndTime:       9_999_999_999,
		Signer:        common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Nonce:         nonceVal,
		RawPayload:    []byte("raw"),
		Status:        types.OrderStatusActive,
	}
	o.ID = o.ComputeID()
	return o
}

func TestEngine_ExecuteMatchesSubmitsAboveWatermark(t *testing.T) {
	ctx := context.Background()
	engine, store, _, exchange := newTestEngine(t, 5)

	sell := order(t, types.SideSell, 10, exchange, "1")
	buy := order(t, types.SideBuy, 10, exchange, "1")
	require.NoError(t, store.Save(ctx, sell))
	require.NoError(t, store.Save(ctx, buy))

	match := &types.Match{
		ID:             types.ComputeMatchID(sell.ID, buy.ID),
		OrderA:         sell.ID,
		OrderB:         buy.ID,
		MaxGasPriceEth: num.NewDecimalFromFloat(0.001),
		ProposedAt:     time.Now().Unix(),
	}

	subs, err := engine.ExecuteMatches(ctx, []*types.Match{match})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, broadcast.StatusAccepted, subs[0].Status)
}

func TestEngine_ExecuteMatchesRejectsBelowWatermark(t *testing.T) {
	ctx := context.Background()
	engine, store, _, exchange := newTestEngine(t, 50)

	sell := order(t, types.SideSell, 10, exchange, "2")
	buy := order(t, types.SideBuy, 10, exchange, "2")
	require.NoError(t, store.Save(ctx, sell))
	require.NoError(t, store.Save(ctx, buy))

	match := &types.Match{
		ID:             types.ComputeMatchID(sell.ID, buy.ID),
		OrderA:         sell.ID,
		OrderB:         buy.ID,
		MaxGasPriceEth: num.NewDecimalFromFloat(0.001),
		ProposedAt:     time.Now().Unix(),
	}

	subs, err := engine.ExecuteMatches(ctx, []*types.Match{match})
	require.NoError(t, err)
	require.Empty(t, subs)
}
