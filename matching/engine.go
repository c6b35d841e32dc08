// Package matching implements the candidate-scan matcher: given a trigger
// order, it enumerates opposite-side candidates from the orderbook's
// per-asset sorted sets, filters for compatibility, and proposes matches.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/num"
	"github.com/orderflow-labs/relayer/orderbook"
	"github.com/orderflow-labs/relayer/types"
)

// Engine runs MatchOrder against a Storage-backed orderbook.
type Engine struct {
	log   *logging.Logger
	store *orderbook.Storage
	cfg   Config
	nowFn func() int64
}

// NewEngine builds an Engine over the given storage and config.
func NewEngine(log *logging.Logger, store *orderbook.Storage, cfg Config) *Engine {
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = NewDefaultConfig().CandidateCap
	}
	return &Engine{
		log:   log.Named(namedLogger),
		store: store,
		cfg:   cfg,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// MatchOrder enumerates opposite-side candidates for trigger, filters them
// for compatibility, and returns the resulting matches ordered by
// descending maxGasPriceEth. It persists every match it constructs.
func (e *Engine) MatchOrder(ctx context.Context, trigger *types.Order) ([]types.Match, error) {
	if trigger.Side == types.SideUnspecified {
		return nil, fmt.Errorf("%w: trigger order has unspecified side", types.ErrValidation)
	}

	candidateIDs, err := e.candidateIDs(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("matching: select candidates: %w", err)
	}

	now := e.nowFn()
	matches := make([]types.Match, 0, len(candidateIDs))

	for _, id := range candidateIDs {
		candidate, err := e.store.GetOrder(ctx, id)
		if err != nil {
			if err == orderbook.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("matching: load candidate %s: %w", id, err)
		}

		compatible, priceFails := isCompatible(trigger, candidate, now)
		if !compatible {
			continue
		}
		if priceFails {
			// sorted order guarantees no further candidate satisfies the
			// price condition once this one fails.
			break
		}

		m := buildMatch(trigger, candidate, now)
		if err := e.store.SaveMatch(ctx, &m); err != nil {
			return nil, fmt.Errorf("matching: persist match %s: %w", m.ID, err)
		}
		matches = append(matches, m)
	}

	sortMatchesByGasPriceDesc(matches)
	return matches, nil
}

// candidateIDs selects the opposite-side index sets for trigger and pages
// them best price first for the trigger: bids highest first, asks lowest
// first.
func (e *Engine) candidateIDs(ctx context.Context, trigger *types.Order) ([]types.Hash, error) {
	limit := e.cfg.CandidateCap

	switch {
	case trigger.Side == types.SideSell && trigger.Scope == types.ScopeSingleToken:
		tok := trigger.TokenID.String()
		perToken, err := e.store.CandidatesInSetDescWithScores(ctx,
			orderbook.TokenOffersKey(trigger.ChainID, trigger.Complication, trigger.Currency, trigger.Collection, tok), limit)
		if err != nil {
			return nil, err
		}
		collectionWide, err := e.store.CandidatesInSetDescWithScores(ctx,
			orderbook.CollectionWideOffersKey(trigger.ChainID, trigger.Complication, trigger.Currency, trigger.Collection), limit)
		if err != nil {
			return nil, err
		}
		return mergeDesc(perToken, collectionWide, limit), nil

	case trigger.Side == types.SideBuy && trigger.Scope == types.ScopeSingleToken:
		tok := trigger.TokenID.String()
		return e.store.CandidatesInSet(ctx,
			orderbook.TokenListingsKey(trigger.ChainID, trigger.Complication, trigger.Currency, trigger.Collection, tok), limit)

	case trigger.Side == types.SideBuy && trigger.Scope == types.ScopeCollectionWide:
		return e.store.CandidatesInSet(ctx,
			orderbook.CollectionTokenListingsKey(trigger.ChainID, trigger.Complication, trigger.Currency, trigger.Collection), limit)

	default:
		return nil, fmt.Errorf("%w: collection-wide sell orders are not supported", types.ErrValidation)
	}
}

// mergeDesc merges two already-score-descending candidate slices into a
// single score-descending id slice, keeping only the first limit entries;
// used when a sell order's counterparties are split across a per-token
// and a collection-wide bid set that MatchOrder must scan as one strictly
// descending sequence.
func mergeDesc(a, b []orderbook.ScoredCandidate, limit int64) []types.Hash {
	out := make([]types.Hash, 0, len(a)+len(b))
	i, j := 0, 0
	for int64(len(out)) < limit && (i < len(a) || j < len(b)) {
		if j >= len(b) || (i < len(a) && a[i].Score >= b[j].Score) {
			out = append(out, a[i].ID)
			i++
			continue
		}
		out = append(out, b[j].ID)
		j++
	}
	return out
}

// isCompatible reports whether candidate may be matched against trigger,
// and whether the price condition specifically is what rejected it (which
// halts the scan, since sorted order guarantees no later candidate would
// pass either).
func isCompatible(trigger, candidate *types.Order, now int64) (compatible bool, priceFails bool) {
	if candidate.Status != types.OrderStatusActive {
		return false, false
	}
	if candidate.Side == trigger.Side {
		return false, false
	}
	if candidate.ChainID != trigger.ChainID {
		return false, false
	}
	if candidate.Complication != trigger.Complication || candidate.Currency != trigger.Currency {
		return false, false
	}
	if candidate.Collection != trigger.Collection {
		return false, false
	}
	if !scopesIntersect(trigger, candidate) {
		return false, false
	}
	if now < trigger.StartTime || now > trigger.EndTime {
		return false, false
	}
	if now < candidate.StartTime || now > candidate.EndTime {
		return false, false
	}

	bid, ask := bidAsk(trigger, candidate)
	if bid.LessThan(ask) {
		return false, true
	}
	return true, false
}

// scopesIntersect reports whether the listing's token falls within the
// bid's scope: a single-token listing and a single-token bid must name
// the same token id; a collection-wide bid accepts any token in the
// collection.
func scopesIntersect(trigger, candidate *types.Order) bool {
	listing, bid := trigger, candidate
	if trigger.Side == types.SideBuy {
		listing, bid = candidate, trigger
	}
	if bid.Scope == types.ScopeCollectionWide {
		return true
	}
	if listing.TokenID == nil || bid.TokenID == nil {
		return false
	}
	return listing.TokenID.EQ(bid.TokenID)
}

// bidAsk returns the buy-side and sell-side prices of the pair, regardless
// of which one is the trigger.
func bidAsk(trigger, candidate *types.Order) (bid, ask num.Decimal) {
	if trigger.Side == types.SideBuy {
		return trigger.StartPriceEth, candidate.StartPriceEth
	}
	return candidate.StartPriceEth, trigger.StartPriceEth
}

// buildMatch constructs the deterministic Match for a compatible pair.
// maxGasPriceEth is the bid/ask slack available to pay gas, floored at
// zero.
func buildMatch(trigger, candidate *types.Order, now int64) types.Match {
	bid, ask := bidAsk(trigger, candidate)
	slack := bid.Sub(ask)
	if slack.IsNegative() {
		slack = num.ZeroDecimal
	}

	a, b := trigger.ID, candidate.ID
	return types.Match{
		ID:             types.ComputeMatchID(a, b),
		OrderA:         a,
		OrderB:         b,
		MaxGasPriceEth: slack,
		ProposedAt:     now,
	}
}

// sortMatchesByGasPriceDesc orders matches by descending maxGasPriceEth,
// tie-broken by earlier ProposedAt then lexicographically smaller id.
func sortMatchesByGasPriceDesc(matches []types.Match) {
	for i := 1; i < len(matches); i++ {
		j := i
		for j > 0 && less(matches[j], matches[j-1]) {
			matches[j], matches[j-1] = matches[j-1], matches[j]
			j--
		}
	}
}

func less(a, b types.Match) bool {
	if !a.MaxGasPriceEth.Equal(b.MaxGasPriceEth) {
		return a.MaxGasPriceEth.GreaterThan(b.MaxGasPriceEth)
	}
	if a.ProposedAt != b.ProposedAt {
		return a.ProposedAt < b.ProposedAt
	}
	return a.ID.Less(b.ID)
}
