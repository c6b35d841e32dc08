// Package nonce implements the lease-guarded, per-(account,exchange)
// monotonic nonce provider from SPEC_FULL.md §4.4: a singleton-per-replica
// state machine that owns the next transaction nonce under a distributed
// lease lock, debouncing writes to a document store while the lease holds.
package nonce

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/orderflow-labs/relayer/logging"
)

// State is a Provider's position in the
// Uninitialized->Acquiring->Running->Closed state machine of
// SPEC_FULL.md §4.4. Closed is terminal; a fresh Provider is required to
// re-elect.
type State int32

const (
	Uninitialized State = iota
	Acquiring
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Acquiring:
		return "acquiring"
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// WatermarkReader exposes the exchange contract's userMinOrderNonce
// cancellation watermark, satisfied by ethclient.Client.
type WatermarkReader interface {
	UserMinOrderNonce(ctx context.Context, exchange, account common.Address) (*big.Int, error)
}

// Provider is the nonce authority for one (chainID, account, exchange)
// triple. At most one replica in the cluster holds Running at a time,
// enforced by the distributed lease lock.
type Provider struct {
	log    *logging.Logger
	cfg    Config
	locker *redislock.Client
	store  Store
	chain  WatermarkReader

	chainID  uint64
	account  common.Address
	exchange common.Address

	mu      sync.Mutex
	state   State
	current uint64
	lock    *redislock.Lock
	lockCtx context.Context
	cancel  context.CancelFunc

	saveTimer *time.Timer
}

// NewProvider builds a Provider over the given Redis lease client and
// persistence Store. It starts in Uninitialized; call Run to elect.
func NewProvider(log *logging.Logger, cfg Config, redisClient *redis.Client, store Store, chain WatermarkReader, chainID uint64, account, exchange common.Address) *Provider {
	named := log.Named(namedLogger).With(
		logging.String("account", account.Hex()),
		logging.String("exchange", exchange.Hex()),
	)
	named.SetLevel(cfg.Level.Get())
	return &Provider{
		log:      named,
		cfg:      cfg,
		locker:   redislock.New(redisClient),
		store:    store,
		chain:    chain,
		chainID:  chainID,
		account:  account,
		exchange: exchange,
		state:    Uninitialized,
	}
}

// State reports the Provider's current state.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run acquires the distributed lease, reads the persisted nonce and the
// exchange's watermark, and transitions Uninitialized -> Acquiring ->
// Running. A contending replica's Obtain call fails with
// redislock.ErrNotObtained; the caller decides whether and when to retry
// (SPEC_FULL.md §8 scenario 5 - contention is logged, not fatal).
func (p *Provider) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Uninitialized {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("nonce: Run called in state %s, expected %s", state, Uninitialized)
	}
	p.state = Acquiring
	p.mu.Unlock()

	key := leaseKey(p.account, p.exchange)
	lock, err := p.locker.Obtain(ctx, key, p.cfg.LeaseTTL.Get(), nil)
	if err != nil {
		p.setState(Closed)
		if errors.Is(err, redislock.ErrNotObtained) {
			p.log.Warn("lease contended, not acquiring nonce authority", logging.String("key", key))
		}
		return fmt.Errorf("nonce: obtain lease %s: %w", key, err)
	}

	record, err := p.store.Load(ctx, p.chainID, p.account, p.exchange)
	if err != nil && !errors.Is(err, ErrNoRecord) {
		_ = lock.Release(ctx)
		p.setState(Closed)
		return fmt.Errorf("nonce: load persisted record: %w", err)
	}
	var persisted uint64
	if record != nil {
		persisted = record.Nonce
	}

	watermark, err := p.chain.UserMinOrderNonce(ctx, p.exchange, p.account)
	if err != nil {
		_ = lock.Release(ctx)
		p.setState(Closed)
		return fmt.Errorf("nonce: read watermark: %w", err)
	}

	effective := persisted
	if w := watermark.Uint64(); w > effective {
		effective = w
	}

	lockCtx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.lock = lock
	p.lockCtx = lockCtx
	p.cancel = cancel
	p.current = effective
	p.state = Running
	p.mu.Unlock()

	go p.renewLoop(ctx)

	p.log.Info("nonce provider running",
		logging.Uint64("startingNonce", effective),
		logging.Uint64("persisted", persisted))
	return nil
}

// GetNonce atomically increments and returns the next nonce, failing fast
// if the lease has been lost or the Provider is closed. Allocation is
// strictly sequential within a replica: the call that returns N completes
// before any call can return N+1, enforced by mu.
func (p *Provider) GetNonce(ctx context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running {
		if p.state == Closed {
			// Closed by lease loss or by Close: either way the lease is gone.
			return 0, fmt.Errorf("%w: %w", ErrClosed, ErrLeaseExpired)
		}
		return 0, fmt.Errorf("nonce: GetNonce called in state %s", p.state)
	}
	select {
	case <-p.lockCtx.Done():
		p.state = Closed
		return 0, ErrLeaseExpired
	default:
	}

	p.current++
	next := p.current
	p.scheduleSaveLocked()
	return next, nil
}

// scheduleSaveLocked arms the debounce timer if one isn't already
// pending; mu must be held. Successive allocations inside one debounce
// window coalesce into a single write of whatever p.current is when the
// timer fires.
func (p *Provider) scheduleSaveLocked() {
	if p.saveTimer != nil {
		return
	}
	p.saveTimer = time.AfterFunc(p.cfg.DebounceInterval.Get(), p.flushSave)
}

// flushSave writes the current in-memory nonce to the Store. Save
// failures are logged but never block allocation: the in-memory copy
// remains authoritative while the lease holds, per SPEC_FULL.md §4.4.
func (p *Provider) flushSave() {
	p.mu.Lock()
	current := p.current
	p.saveTimer = nil
	p.mu.Unlock()

	rec := &Record{
		ChainID:   p.chainID,
		Account:   p.account,
		Exchange:  p.exchange,
		Nonce:     current,
		UpdatedAt: time.Now().Unix(),
	}
	if err := p.store.Merge(context.Background(), rec); err != nil {
		p.log.Warn("debounced nonce save failed, in-memory value remains authoritative",
			logging.Uint64("nonce", current), logging.Error(err))
	}
}

// renewLoop refreshes the lease on a fixed tick well inside the TTL. A
// renewal failure or parent cancellation closes the Provider and cancels
// lockCtx, fast-failing every pending and future GetNonce call.
func (p *Provider) renewLoop(parent context.Context) {
	ticker := time.NewTicker(p.cfg.LeaseRenewEvery.Get())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			lock := p.lock
			p.mu.Unlock()
			if err := lock.Refresh(parent, p.cfg.LeaseTTL.Get(), nil); err != nil {
				p.log.Error("lease renewal failed, closing provider", logging.Error(err))
				p.closeOnLeaseLoss()
				return
			}
		case <-p.lockCtx.Done():
			return
		case <-parent.Done():
			p.closeOnLeaseLoss()
			return
		}
	}
}

func (p *Provider) closeOnLeaseLoss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Closed {
		return
	}
	p.state = Closed
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Provider) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Close flushes any pending debounced save, releases the lease, and moves
// the Provider to Closed. Re-running requires a new instance.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.state == Closed {
		p.mu.Unlock()
		return nil
	}
	p.state = Closed
	lock := p.lock
	cancel := p.cancel
	timer := p.saveTimer
	p.saveTimer = nil
	p.mu.Unlock()

	if timer != nil && timer.Stop() {
		p.flushSave()
	}
	if cancel != nil {
		cancel()
	}
	if lock == nil {
		return nil
	}
	if err := lock.Release(ctx); err != nil {
		return fmt.Errorf("nonce: release lease: %w", err)
	}
	return nil
}

// leaseKey builds the distributed lease key from SPEC_FULL.md §4.4:
// "nonce-provider:account:{acct}:exchange:{xch}:lock".
func leaseKey(account, exchange common.Address) string {
	return fmt.Sprintf("nonce-provider:account:%s:exchange:%s:lock", account.Hex(), exchange.Hex())
}
