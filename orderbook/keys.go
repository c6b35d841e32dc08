package orderbook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orderflow-labs/relayer/types"
)

// keyPrefix returns the chain-scoped namespace every key lives under, per
// SPEC_FULL.md §6: "orderbook:v1:chain:{chainId}:".
func keyPrefix(chainID uint64) string {
	return fmt.Sprintf("orderbook:v1:chain:%d:", chainID)
}

func ordersKey(chainID uint64) string {
	return keyPrefix(chainID) + "orders"
}

func activeKey(chainID uint64) string {
	return keyPrefix(chainID) + "order-status:active"
}

func executedKey(chainID uint64) string {
	return keyPrefix(chainID) + "order-status:executed"
}

func orderFullKey(chainID uint64, id types.Hash) string {
	return fmt.Sprintf("%sorders:%s:full", keyPrefix(chainID), id)
}

func orderMatchesKey(chainID uint64, orderID types.Hash) string {
	return fmt.Sprintf("%sorder-matches:%s", keyPrefix(chainID), orderID)
}

func matchFullKey(chainID uint64, matchID types.Hash) string {
	return fmt.Sprintf("%sorder-matches:%s:full", keyPrefix(chainID), matchID)
}

func matchesByGasPriceKey(chainID uint64) string {
	return keyPrefix(chainID) + "order-matches:by-gas-price"
}

// tokenKey builds the per-token sorted set, under the chain key prefix:
// scope:single-token:complication:{c}:currency:{ccy}:side:{s}:collection:{col}:tokenId:{t}.
func tokenKey(chainID uint64, side types.Side, complication, currency, collection common.Address, tokenID string) string {
	return fmt.Sprintf("%sscope:single-token:complication:%s:currency:%s:side:%s:collection:%s:tokenId:%s",
		keyPrefix(chainID), complication.Hex(), currency.Hex(), side, collection.Hex(), tokenID)
}

// collectionRollupKey builds the collection-token-{offers,listings} rollup
// set a per-token order also lands in.
func collectionRollupKey(chainID uint64, side types.Side, complication, currency, collection common.Address) string {
	kind := "listings"
	if side == types.SideBuy {
		kind = "offers"
	}
	return fmt.Sprintf("%scollection-token-%s:complication:%s:currency:%s:collection:%s",
		keyPrefix(chainID), kind, complication.Hex(), currency.Hex(), collection.Hex())
}

// collectionWideKey builds the scope:collection-wide:... set a
// collection-wide bid lands in (collection-wide sells are unsupported).
func collectionWideKey(chainID uint64, complication, currency, collection common.Address) string {
	return fmt.Sprintf("%sscope:collection-wide:complication:%s:currency:%s:side:buy:collection:%s",
		keyPrefix(chainID), complication.Hex(), currency.Hex(), collection.Hex())
}

// IndexSets returns the per-asset sorted-set keys a given order must be
// indexed under, per the side × scope derivation table in SPEC_FULL.md
// §4.1. It rejects the unsupported sell/collection-wide combination.
func IndexSets(o *types.Order) ([]string, error) {
	switch {
	case o.Side == types.SideBuy && o.Scope == types.ScopeSingleToken:
		tok := o.TokenID.String()
		return []string{
			tokenKey(o.ChainID, types.SideBuy, o.Complication, o.Currency, o.Collection, tok),
			collectionRollupKey(o.ChainID, types.SideBuy, o.Complication, o.Currency, o.Collection),
		}, nil
	case o.Side == types.SideBuy && o.Scope == types.ScopeCollectionWide:
		return []string{collectionWideKey(o.ChainID, o.Complication, o.Currency, o.Collection)}, nil
	case o.Side == types.SideSell && o.Scope == types.ScopeSingleToken:
		tok := o.TokenID.String()
		return []string{
			tokenKey(o.ChainID, types.SideSell, o.Complication, o.Currency, o.Collection, tok),
			collectionRollupKey(o.ChainID, types.SideSell, o.Complication, o.Currency, o.Collection),
		}, nil
	default:
		return nil, fmt.Errorf("%w: collection-wide sell orders are not supported", types.ErrValidation)
	}
}

// TokenListingsKey and TokenOffersKey expose the per-token set names for
// the matching engine's opposite-side lookups.
func TokenListingsKey(chainID uint64, complication, currency, collection common.Address, tokenID string) string {
	return tokenKey(chainID, types.SideSell, complication, currency, collection, tokenID)
}

func TokenOffersKey(chainID uint64, complication, currency, collection common.Address, tokenID string) string {
	return tokenKey(chainID, types.SideBuy, complication, currency, collection, tokenID)
}

// CollectionTokenListingsKey exposes the collection-wide rollup of every
// per-token listing, the set every collection-wide bid is matched against
// (orders carry no token allow-list).
func CollectionTokenListingsKey(chainID uint64, complication, currency, collection common.Address) string {
	return collectionRollupKey(chainID, types.SideSell, complication, currency, collection)
}

// CollectionWideOffersKey exposes the collection-wide bid set a token
// listing must also check against.
func CollectionWideOffersKey(chainID uint64, complication, currency, collection common.Address) string {
	return collectionWideKey(chainID, complication, currency, collection)
}
