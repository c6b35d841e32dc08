// Package execution implements the Execution Engine from SPEC_FULL.md
// §4.3: it turns proposed matches into signed, submitted on-chain
// transactions, in gas-price order, with at-most-one in-flight
// transaction per allocated nonce.
package execution

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/orderflow-labs/relayer/broadcast"
	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/marketplaces"
	"github.com/orderflow-labs/relayer/metrics"
	"github.com/orderflow-labs/relayer/nonce"
	"github.com/orderflow-labs/relayer/num"
	"github.com/orderflow-labs/relayer/orderbook"
	relayertypes "github.com/orderflow-labs/relayer/types"
)

// ChainReader is the surface the execution engine needs from the chain
// beyond what the Nonce Provider already reads: the cancellation
// watermark, the current header (for the submission's target block), and
// a gas price suggestion. Satisfied by *ethclient.Client.
type ChainReader interface {
	UserMinOrderNonce(ctx context.Context, exchange, account common.Address) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Engine is the Execution Engine. One Engine serves every exchange
// contract the relayer trades against; nonce authority per exchange is
// delegated to the matching entry in providers.
type Engine struct {
	log         *logging.Logger
	cfg         Config
	store       *orderbook.Storage
	dispatcher  *marketplaces.Dispatcher
	providers   map[common.Address]*nonce.Provider
	chain       ChainReader
	broadcaster broadcast.Broadcaster
	metrics     *metrics.Metrics

	signer  *ecdsa.PrivateKey
	account common.Address
	chainID *big.Int
}

// NewEngine builds an Engine. providers must hold a Run-ing nonce.Provider
// for every exchange address the relayer expects to trade against;
// ExecuteMatches rejects matches against any other exchange.
func NewEngine(
	log *logging.Logger,
	cfg Config,
	store *orderbook.Storage,
	dispatcher *marketplaces.Dispatcher,
	providers map[common.Address]*nonce.Provider,
	chain ChainReader,
	broadcaster broadcast.Broadcaster,
	m *metrics.Metrics,
	signer *ecdsa.PrivateKey,
	chainID uint64,
) *Engine {
	named := log.Named(namedLogger)
	named.SetLevel(cfg.Level.Get())
	return &Engine{
		log:         named,
		cfg:         cfg,
		store:       store,
		dispatcher:  dispatcher,
		providers:   providers,
		chain:       chain,
		broadcaster: broadcaster,
		metrics:     m,
		signer:      signer,
		account:     crypto.PubkeyToAddress(signer.PublicKey),
		chainID:     new(big.Int).SetUint64(chainID),
	}
}

// ExecuteMatches converts proposed matches into signed, broadcast
// transactions, per SPEC_FULL.md §4.3: group by exchange, discard matches
// below the cancellation watermark, allocate a nonce, dispatch to the
// marketplace builder, broadcast, and record the outcome. A match that is
// rejected before nonce allocation (unsupported marketplace, stale
// watermark) is skipped, not reported as an error.
func (e *Engine) ExecuteMatches(ctx context.Context, matches []*relayertypes.Match) ([]Submission, error) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MaxGasPriceEth.GreaterThan(matches[j].MaxGasPriceEth)
	})

	groups := make(map[common.Address][]*relayertypes.Match)
	for _, m := range matches {
		sell, buy, err := e.loadOrders(ctx, m)
		if err != nil {
			e.log.Warn("skipping match, could not load orders", logging.String("matchId", m.ID.String()), logging.Error(err))
			continue
		}
		groups[sell.Complication] = append(groups[sell.Complication], m)
		_ = buy
	}

	var out []Submission
	for exchange, group := range groups {
		subs, err := e.executeGroup(ctx, exchange, group)
		if err != nil {
			return out, err
		}
		out = append(out, subs...)
	}
	return out, nil
}

func (e *Engine) executeGroup(ctx context.Context, exchange common.Address, group []*relayertypes.Match) ([]Submission, error) {
	provider, ok := e.providers[exchange]
	if !ok {
		e.log.Warn("no nonce provider configured for exchange, rejecting group",
			logging.String("exchange", exchange.Hex()))
		return nil, nil
	}

	watermark, err := e.watermarkWithRetry(ctx, exchange)
	if err != nil {
		return nil, fmt.Errorf("execution: read watermark for %s: %w", exchange, err)
	}

	header, err := e.chain.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("execution: read current header: %w", err)
	}
	targetBlock := header.Number.Uint64() + e.cfg.TargetBlockOffset

	gasPrice, err := e.chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("execution: suggest gas price: %w", err)
	}

	var out []Submission
	for _, m := range group {
		sub, err := e.executeOne(ctx, provider, exchange, watermark, gasPrice, targetBlock, m)
		if err != nil {
			if errors.Is(err, ErrExecutionRejected) {
				e.log.Info("match rejected without consuming a nonce",
					logging.String("matchId", m.ID.String()), logging.Error(err))
				continue
			}
			return out, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (e *Engine) executeOne(
	ctx context.Context,
	provider *nonce.Provider,
	exchange common.Address,
	watermark *big.Int,
	gasPrice *big.Int,
	targetBlock uint64,
	m *relayertypes.Match,
) (Submission, error) {
	sell, buy, err := e.loadOrders(ctx, m)
	if err != nil {
		return Submission{}, fmt.Errorf("%w: load orders for match %s: %v", ErrExecutionRejected, m.ID, err)
	}

	w := watermark.Uint64()
	if sell.Nonce <= w || buy.Nonce <= w {
		return Submission{}, fmt.Errorf("%w: order nonce at or below watermark %d", ErrExecutionRejected, w)
	}

	builder, err := e.dispatcher.Dispatch(marketplaces.Marketplace(sell.Marketplace), marketplaces.OrderKind(sell.Kind))
	if err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrExecutionRejected, err)
	}

	calldata, err := builder.BuildTransaction(ctx, *m, sell, buy)
	if err != nil {
		return Submission{}, fmt.Errorf("%w: build transaction: %v", ErrExecutionRejected, err)
	}

	txNonce, err := provider.GetNonce(ctx)
	if err != nil {
		return Submission{}, fmt.Errorf("execution: allocate nonce: %w", err)
	}
	e.metrics.NonceAllocations.Inc()

	capped := capGasPrice(gasPrice, weiFromEth(m.MaxGasPriceEth))

	legacyTx := &types.LegacyTx{
		Nonce:    txNonce,
		To:       &exchange,
		Value:    big.NewInt(0),
		Gas:      e.cfg.GasLimit,
		GasPrice: capped,
		Data:     calldata,
	}
	signedTx, err := types.SignNewTx(e.signer, types.LatestSignerForChainID(e.chainID), legacyTx)
	if err != nil {
		return Submission{}, fmt.Errorf("execution: sign transaction: %w", err)
	}

	receipt, err := e.broadcaster.Broadcast(ctx, signedTx, broadcast.Options{TargetBlock: targetBlock})
	status := receipt.Status
	if err != nil {
		status = broadcast.StatusDropped
		e.log.Warn("broadcast failed, marking parent orders re-queueable",
			logging.String("matchId", m.ID.String()), logging.Error(err))
	} else {
		if err := e.store.MarkExecuted(ctx, sell.ID); err != nil {
			e.log.Warn("mark executed failed", logging.Error(err))
		}
		if err := e.store.MarkExecuted(ctx, buy.ID); err != nil {
			e.log.Warn("mark executed failed", logging.Error(err))
		}
	}

	e.metrics.SubmissionsTotal.WithLabelValues(status.String()).Inc()

	return Submission{
		MatchID:  m.ID,
		Exchange: exchange,
		Nonce:    txNonce,
		TxHash:   signedTx.Hash().Hex(),
		Status:   status,
	}, nil
}

func (e *Engine) loadOrders(ctx context.Context, m *relayertypes.Match) (sell, buy *relayertypes.Order, err error) {
	a, err := e.store.GetOrder(ctx, m.OrderA)
	if err != nil {
		return nil, nil, fmt.Errorf("load order %s: %w", m.OrderA, err)
	}
	b, err := e.store.GetOrder(ctx, m.OrderB)
	if err != nil {
		return nil, nil, fmt.Errorf("load order %s: %w", m.OrderB, err)
	}
	if a.Side == relayertypes.SideSell {
		return a, b, nil
	}
	return b, a, nil
}

// watermarkWithRetry reads the exchange's cancellation watermark, retrying
// transient RPC failures per ChainRpcError policy (SPEC_FULL.md §7).
func (e *Engine) watermarkWithRetry(ctx context.Context, exchange common.Address) (*big.Int, error) {
	var result *big.Int
	op := func() error {
		w, err := e.chain.UserMinOrderNonce(ctx, exchange, e.account)
		if err != nil {
			return err
		}
		result = w
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.RPCRetry.InitialInterval.Get()
	policy := backoff.WithMaxRetries(bo, uint64(e.cfg.RPCRetry.MaxAttempts))
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// weiFromEth converts an ETH-denominated decimal to wei.
func weiFromEth(d num.Decimal) *big.Int {
	return d.Shift(18).BigInt()
}

// capGasPrice caps the chain's suggested gas price at the match's
// maxGasPriceEth budget (in wei). A zero budget leaves the suggested price
// uncapped.
func capGasPrice(suggested, budget *big.Int) *big.Int {
	if budget.Sign() > 0 && suggested.Cmp(budget) > 0 {
		return budget
	}
	return suggested
}
