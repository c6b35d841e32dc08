package orderbook_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/num"
	"github.com/orderflow-labs/relayer/orderbook"
	"github.com/orderflow-labs/relayer/types"
)

const testChainID = 1

func newTestStorage(t *testing.T) *orderbook.Storage {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	return orderbook.NewStorage(log, client, testChainID)
}

func newActiveOrder(t *testing.T, side types.Side, tokenID string) *types.Order {
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
		Complication:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Currency:      common.Address{},
		StartPriceEth: num.NewDecimalFromFloat(1.5),
		StartTime:     1000,
		EndTime:       2000,
		Signer:        common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Nonce:         1,
		RawPayload:    []byte("raw"),
		Status:        types.OrderStatusActive,
	}
	o.ID = o.ComputeID()
	return o
}

func TestStorage_SaveAndGetOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	o := newActiveOrder(t, types.SideSell, "7")
	require.NoError(t, s.Save(ctx, o))

	has, err := s.Has(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, has)

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.ID == o.ID)
	assert.Equal(t, o.Status, got.Status)

	status, err := s.GetStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusActive, status)

	state, err := s.GetExecutionStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderbook.ExecutionActive, state)
}

func TestStorage_DeactivateRemovesFullPayloadButKeepsStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	o := newActiveOrder(t, types.SideSell, "7")
	require.NoError(t, s.Save(ctx, o))

	has, err := s.Has(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, has)

	o.Status = types.OrderStatusFilled
	require.NoError(t, s.Save(ctx, o))

	has, err = s.Has(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, orderbook.ErrNotFound)

	status, err := s.GetStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, status)

	state, err := s.GetExecutionStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderbook.ExecutionExecuted, state)
}

func TestStorage_CascadeDeletesMatchOnDeactivate(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	sell := newActiveOrder(t, types.SideSell, "9")
	buy := newActiveOrder(t, types.SideBuy, "9")
	require.NoError(t, s.Save(ctx, sell))
	require.NoError(t, s.Save(ctx, buy))

	m := &types.Match{
		ID:             types.ComputeMatchID(sell.ID, buy.ID),
		OrderA:         sell.ID,
		OrderB:         buy.ID,
		MaxGasPriceEth: num.NewDecimalFromFloat(50),
		ProposedAt:     1234,
	}
	require.NoError(t, s.SaveMatch(ctx, m))

	found, err := s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, found.OrderA == sell.ID)

	sell.Status = types.OrderStatusCancelled
	require.NoError(t, s.Save(ctx, sell))

	_, err = s.GetMatch(ctx, m.ID)
	assert.ErrorIs(t, err, orderbook.ErrNotFound)

	ids, err := s.MatchesByGasPriceDesc(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStorage_CandidatesInSetOrdersByPrice(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	cheap := newActiveOrder(t, types.SideSell, "1")
	cheap.StartPriceEth = num.NewDecimalFromFloat(1)
	cheap.ID = cheap.ComputeID()

	pricey := newActiveOrder(t, types.SideSell, "2")
	pricey.StartPriceEth = num.NewDecimalFromFloat(9)
	pricey.ID = pricey.ComputeID()

	require.NoError(t, s.Save(ctx, cheap))
	require.NoError(t, s.Save(ctx, pricey))

	set := orderbook.CollectionTokenListingsKey(testChainID, cheap.Complication, cheap.Currency, cheap.Collection)
	ids, err := s.CandidatesInSet(ctx, set, 10)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, cheap.ID, ids[0])
	assert.Equal(t, pricey.ID, ids[1])
}
