package nonce_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/nonce"
)

const testChainID = 1

var (
	testAccount  = common.HexToAddress("0xaaaa111111111111111111111111111111111111")
	testExchange = common.HexToAddress("0xbbbb222222222222222222222222222222222222")
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*nonce.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*nonce.Record{}}
}

func (f *fakeStore) key(account, exchange common.Address) string {
	return account.Hex() + "/" + exchange.Hex()
}

func (f *fakeStore) Load(_ context.Context, _ uint64, account, exchange common.Address) (*nonce.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[f.key(account, exchange)]
	if !ok {
		return nil, nonce.ErrNoRecord
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) Merge(_ context.Context, rec *nonce.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *rec
	f.records[f.key(rec.Account, rec.Exchange)] = &copied
	return nil
}

type fakeWatermark struct {
	value uint64
}

func (f fakeWatermark) UserMinOrderNonce(context.Context, common.Address, common.Address) (*big.Int, error) {
	return new(big.Int).SetUint64(f.value), nil
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestProvider_RunStartsFromWatermarkWhenHigherThanPersisted(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	store := newFakeStore()
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())

	p := nonce.NewProvider(log, nonce.NewDefaultConfig(), client, store, fakeWatermark{value: 41}, testChainID, testAccount, testExchange)
	require.NoError(t, p.Run(ctx))
	assert.Equal(t, nonce.Running, p.State())

	n, err := p.GetNonce(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
}

func TestProvider_RunStartsFromPersistedWhenHigherThanWatermark(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	store := newFakeStore()
	require.NoError(t, store.Merge(ctx, &nonce.Record{ChainID: testChainID, Account: testAccount, Exchange: testExchange, Nonce: 100}))
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())

	p := nonce.NewProvider(log, nonce.NewDefaultConfig(), client, store, fakeWatermark{value: 5}, testChainID, testAccount, testExchange)
	require.NoError(t, p.Run(ctx))

	n, err := p.GetNonce(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), n)
}

func TestProvider_AllocationsAreSequential(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	store := newFakeStore()
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())

	p := nonce.NewProvider(log, nonce.NewDefaultConfig(), client, store, fakeWatermark{value: 0}, testChainID, testAccount, testExchange)
	require.NoError(t, p.Run(ctx))

	prev := uint64(0)
	for i := 0; i < 10; i++ {
		n, err := p.GetNonce(ctx)
		require.NoError(t, err)
		assert.Equal(t, prev+1, n)
		prev = n
	}
}

func TestProvider_SecondReplicaCannotAcquireHeldLease(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := newFakeStore()
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())

	first := nonce.NewProvider(log, nonce.NewDefaultConfig(), client, store, fakeWatermark{value: 0}, testChainID, testAccount, testExchange)
	require.NoError(t, first.Run(ctx))

	second := nonce.NewProvider(log, nonce.NewDefaultConfig(), client, store, fakeWatermark{value: 0}, testChainID, testAccount, testExchange)
	err = second.Run(ctx)
	assert.Error(t, err)
	assert.Equal(t, nonce.Closed, second.State())
}

func TestProvider_ClosedProviderRejectsFurtherAllocation(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	store := newFakeStore()
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())

	p := nonce.NewProvider(log, nonce.NewDefaultConfig(), client, store, fakeWatermark{value: 0}, testChainID, testAccount, testExchange)
	require.NoError(t, p.Run(ctx))
	require.NoError(t, p.Close(ctx))

	_, err := p.GetNonce(ctx)
	assert.ErrorIs(t, err, nonce.ErrClosed)
}
