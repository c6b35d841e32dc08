package orderbook

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/types"
)

// ErrNotFound is returned when an order or match has no record at all,
// as opposed to having been deactivated.
var ErrNotFound = errors.New("orderbook: not found")

// ExecutionState describes where an order sits relative to submission,
// independent of its OrderStatus.
type ExecutionState int

const (
	ExecutionUnknown ExecutionState = iota
	ExecutionActive
	ExecutionExecuted
	ExecutionInactive
)

// Storage is the Redis-backed indexed orderbook. It keeps both the set of
// currently-active orders and their per-asset sorted-set indices in sync
// within a single transaction, per SPEC_FULL.md §6.
type Storage struct {
	log     *logging.Logger
	client  *redis.Client
	chainID uint64
}

// NewStorage builds a Storage rooted at the given chain's key namespace.
func NewStorage(log *logging.Logger, client *redis.Client, chainID uint64) *Storage {
	return &Storage{
		log:     log.Named(namedLogger),
		client:  client,
		chainID: chainID,
	}
}

// Has reports whether id is in the orders set, which holds an order only
// while it is Active: saving any other status removes it.
func (s *Storage) Has(ctx context.Context, id types.Hash) (bool, error) {
	n, err := s.client.SIsMember(ctx, ordersKey(s.chainID), id.String()).Result()
	return n, err
}

// Save persists an order. An Active order is written into the active set,
// its full payload, and every per-asset index set IndexSets derives for it.
// Any other status removes it from those sets but keeps the terminal
// order-status record, so GetStatus keeps answering after cascade-delete.
func (s *Storage) Save(ctx context.Context, o *types.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	buf, err := encodeOrder(o)
	if err != nil {
		return err
	}

	idStr := o.ID.String()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fmt.Sprintf("%sorder-status:%s", keyPrefix(s.chainID), idStr), fmt.Sprintf("%d", o.Status), 0)

		if o.Status == types.OrderStatusActive {
			pipe.SAdd(ctx, ordersKey(s.chainID), idStr)
			pipe.SAdd(ctx, activeKey(s.chainID), idStr)
			pipe.Set(ctx, orderFullKey(s.chainID, o.ID), buf, 0)

			sets, err := IndexSets(o)
			if err != nil {
				return err
			}
			score, _ := o.StartPriceEth.Float64()
			for _, set := range sets {
				pipe.ZAdd(ctx, set, redis.Z{Score: score, Member: idStr})
			}
			return nil
		}

		pipe.SRem(ctx, ordersKey(s.chainID), idStr)
		pipe.SRem(ctx, activeKey(s.chainID), idStr)
		if o.Status == types.OrderStatusFilled {
			pipe.SAdd(ctx, executedKey(s.chainID), idStr)
		}
		sets, err := IndexSets(o)
		if err == nil {
			for _, set := range sets {
				pipe.ZRem(ctx, set, idStr)
			}
		}
		pipe.Del(ctx, orderFullKey(s.chainID, o.ID))

		return s.cascadeDeleteMatches(ctx, pipe, o.ID)
	})
	if err != nil {
		return fmt.Errorf("orderbook: save order %s: %w", idStr, err)
	}
	return nil
}

// cascadeDeleteMatches removes every match involving orderID: its full
// payload, its gas-price index entry, and the reverse pointer on its
// counterpart, using the literal ordered pair stored on the match (the
// pair is never re-derived, per SPEC_FULL.md §9).
func (s *Storage) cascadeDeleteMatches(ctx context.Context, pipe redis.Pipeliner, orderID types.Hash) error {
	matchIDs, err := s.client.SMembers(ctx, orderMatchesKey(s.chainID, orderID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, midStr := range matchIDs {
		mid, err := types.HashFromHex(midStr)
		if err != nil {
			continue
		}
		raw, err := s.client.Get(ctx, matchFullKey(s.chainID, mid)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return err
		}
		m, err := decodeMatch(raw)
		if err != nil {
			return err
		}

		pipe.Del(ctx, matchFullKey(s.chainID, mid))
		pipe.ZRem(ctx, matchesByGasPriceKey(s.chainID), midStr)

		counterpart := m.Counterpart(orderID)
		pipe.SRem(ctx, orderMatchesKey(s.chainID, counterpart), midStr)
	}

	pipe.Del(ctx, orderMatchesKey(s.chainID, orderID))
	return nil
}

// GetOrder returns the full order payload. It only exists while the order
// is Active; once deactivated callers must fall back to GetStatus.
func (s *Storage) GetOrder(ctx context.Context, id types.Hash) (*types.Order, error) {
	raw, err := s.client.Get(ctx, orderFullKey(s.chainID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

// GetStatus returns the last-known OrderStatus for id, surviving
// cascade-delete of the order's full payload.
func (s *Storage) GetStatus(ctx context.Context, id types.Hash) (types.OrderStatus, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf("%sorder-status:%s", keyPrefix(s.chainID), id)).Result()
	if errors.Is(err, redis.Nil) {
		return types.OrderStatusUnspecified, ErrNotFound
	}
	if err != nil {
		return types.OrderStatusUnspecified, err
	}
	var v uint8
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return types.OrderStatusUnspecified, fmt.Errorf("orderbook: corrupt status record for %s: %w", id, err)
	}
	return types.OrderStatus(v), nil
}

// GetExecutionStatus reports where an order sits relative to submission,
// independent of its OrderStatus transitions. Existence is checked against
// the persistent order-status record rather than Has, since deactivation
// removes id from orders/active but the status record survives.
func (s *Storage) GetExecutionStatus(ctx context.Context, id types.Hash) (ExecutionState, error) {
	executed, err := s.client.SIsMember(ctx, executedKey(s.chainID), id.String()).Result()
	if err != nil {
		return ExecutionUnknown, err
	}
	if executed {
		return ExecutionExecuted, nil
	}

	active, err := s.client.SIsMember(ctx, activeKey(s.chainID), id.String()).Result()
	if err != nil {
		return ExecutionUnknown, err
	}
	if active {
		return ExecutionActive, nil
	}

	if _, err := s.GetStatus(ctx, id); err != nil {
		return ExecutionUnknown, err
	}
	return ExecutionInactive, nil
}

// MarkExecuted flags an order as having had a submission broadcast for it,
// called by the execution engine once a transaction is sent.
func (s *Storage) MarkExecuted(ctx context.Context, id types.Hash) error {
	return s.client.SAdd(ctx, executedKey(s.chainID), id.String()).Err()
}

// SaveMatch persists a proposed match: its full payload, the gas-price
// index used for execution ordering, and the reverse pointers on both
// orders that cascadeDeleteMatches relies on.
func (s *Storage) SaveMatch(ctx context.Context, m *types.Match) error {
	buf, err := encodeMatch(m)
	if err != nil {
		return err
	}
	score, _ := m.MaxGasPriceEth.Float64()
	idStr := m.ID.String()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchFullKey(s.chainID, m.ID), buf, 0)
		pipe.ZAdd(ctx, matchesByGasPriceKey(s.chainID), redis.Z{Score: score, Member: idStr})
		pipe.SAdd(ctx, orderMatchesKey(s.chainID, m.OrderA), idStr)
		pipe.SAdd(ctx, orderMatchesKey(s.chainID, m.OrderB), idStr)
		return nil
	})
	if err != nil {
		return fmt.Errorf("orderbook: save match %s: %w", idStr, err)
	}
	return nil
}

// MatchesByGasPriceDesc returns match ids ordered highest-gas-price-first,
// the order the execution engine submits them in.
func (s *Storage) MatchesByGasPriceDesc(ctx context.Context, limit int64) ([]types.Hash, error) {
	raw, err := s.client.ZRevRange(ctx, matchesByGasPriceKey(s.chainID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.Hash, 0, len(raw))
	for _, r := range raw {
		h, err := types.HashFromHex(r)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// GetMatch returns the full match payload.
func (s *Storage) GetMatch(ctx context.Context, id types.Hash) (*types.Match, error) {
	raw, err := s.client.Get(ctx, matchFullKey(s.chainID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeMatch(raw)
}

// CandidatesInSet returns the order ids indexed in set, ascending by price,
// used by the matching engine's opposite-side scan over asks (sells want
// lowest ask first).
func (s *Storage) CandidatesInSet(ctx context.Context, set string, limit int64) ([]types.Hash, error) {
	raw, err := s.client.ZRange(ctx, set, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	return decodeHashes(raw)
}

// CandidatesInSetDesc returns the order ids indexed in set, descending by
// price, used when scanning bids (buys want highest bid first).
func (s *Storage) CandidatesInSetDesc(ctx context.Context, set string, limit int64) ([]types.Hash, error) {
	raw, err := s.client.ZRevRange(ctx, set, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	return decodeHashes(raw)
}

// ScoredCandidate pairs a candidate order id with its index score
// (startPriceEth). Used where two index sets must be merged into a single
// descending sequence rather than paged independently.
type ScoredCandidate struct {
	ID    types.Hash
	Score float64
}

// CandidatesInSetDescWithScores returns order ids indexed in set together
// with their index score, descending by price.
func (s *Storage) CandidatesInSetDescWithScores(ctx context.Context, set string, limit int64) ([]ScoredCandidate, error) {
	raw, err := s.client.ZRevRangeWithScores(ctx, set, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ScoredCandidate, 0, len(raw))
	for _, z := range raw {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("orderbook: unexpected zset member type %T", z.Member)
		}
		h, err := types.HashFromHex(member)
		if err != nil {
			return nil, err
		}
		out = append(out, ScoredCandidate{ID: h, Score: z.Score})
	}
	return out, nil
}

func decodeHashes(raw []string) ([]types.Hash, error) {
	out := make([]types.Hash, 0, len(raw))
	for _, r := range raw {
		h, err := types.HashFromHex(r)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
