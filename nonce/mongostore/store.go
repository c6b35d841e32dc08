// Package mongostore is the default nonce.Store adapter, persisting the
// matchExecutors/{account}/nonces/{exchange} document layout of
// SPEC_FULL.md §6 to a MongoDB collection via go.mongodb.org/mongo-driver.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/orderflow-labs/relayer/nonce"
)

// Store implements nonce.Store over a single MongoDB collection, keyed by
// the literal "matchExecutors/{account}/nonces/{exchange}" document id
// named in SPEC_FULL.md §6.
type Store struct {
	collection *mongo.Collection
}

// New wraps an already-connected collection handle.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

type document struct {
	ChainID               uint64 `bson:"chainId"`
	MatchExecutorAddress  string `bson:"matchExecutorAddress"`
	ExchangeAddress       string `bson:"exchangeAddress"`
	Nonce                 string `bson:"nonce"`
	UpdatedAt             int64  `bson:"updatedAt"`
	CreatedAt             int64  `bson:"createdAt"`
}

func docID(account, exchange common.Address) string {
	return fmt.Sprintf("matchExecutors/%s/nonces/%s", account.Hex(), exchange.Hex())
}

// Load returns the persisted Record, or nonce.ErrNoRecord if no document
// exists yet for (account, exchange).
func (s *Store) Load(ctx context.Context, chainID uint64, account, exchange common.Address) (*nonce.Record, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": docID(account, exchange)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nonce.ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: load: %w", err)
	}
	var n uint64
	if _, err := fmt.Sscanf(doc.Nonce, "%d", &n); err != nil {
		return nil, fmt.Errorf("mongostore: corrupt nonce value %q: %w", doc.Nonce, err)
	}
	return &nonce.Record{
		ChainID:   doc.ChainID,
		Account:   account,
		Exchange:  exchange,
		Nonce:     n,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// Merge upserts rec into the document store, setting createdAt only on
// first insert, matching the `$merge`-style write SPEC_FULL.md §4.4 calls
// for. Callers never block allocation on its result.
func (s *Store) Merge(ctx context.Context, rec *nonce.Record) error {
	now := time.Now().Unix()
	filter := bson.M{"_id": docID(rec.Account, rec.Exchange)}
	update := bson.M{
		"$set": bson.M{
			"chainId":              rec.ChainID,
			"matchExecutorAddress": rec.Account.Hex(),
			"exchangeAddress":      rec.Exchange.Hex(),
			"nonce":                fmt.Sprintf("%d", rec.Nonce),
			"updatedAt":            now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	if _, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongostore: merge: %w", err)
	}
	return nil
}
