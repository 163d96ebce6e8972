// Package mongostore provides a MongoDB-backed ReceiptStore for durable
// receipt persistence across process restarts, an alternative to the
// file-based default in runtime.ReceiptStore.
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// Store persists Receipts as documents keyed by run id in a MongoDB collection.
type Store struct {
	collection *mongo.Collection
}

// receiptDocument is the MongoDB document representation of a Receipt. The
// receipt is stored as a sub-document under "receipt" alongside an indexed
// "_id", so List reads only "_id"; Load decodes the whole sub-document with
// the driver's default struct mapping, since contract.Receipt has no BSON tags.
type receiptDocument struct {
	ID      string           `bson:"_id"`
	Receipt contract.Receipt `bson:"receipt"`
}

// New constructs a Store backed by an already-connected collection.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// Save upserts receipt under its run id.
func (s *Store) Save(ctx context.Context, receipt contract.Receipt) error {
	id := receipt.Meta.RunID.String()
	doc := receiptDocument{ID: id, Receipt: receipt}
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	if err != nil {
		return abperrors.Wrap(abperrors.Internal, "mongostore: save receipt", err)
	}
	return nil
}

// Load retrieves the receipt stored for runID.
func (s *Store) Load(ctx context.Context, runID uuid.UUID) (contract.Receipt, error) {
	var doc receiptDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": runID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return contract.Receipt{}, abperrors.Newf(abperrors.Internal, "mongostore: no receipt for run %s", runID)
		}
		return contract.Receipt{}, abperrors.Wrap(abperrors.Internal, "mongostore: load receipt", err)
	}
	return doc.Receipt, nil
}

// List returns every run id currently stored.
func (s *Store) List(ctx context.Context) ([]uuid.UUID, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, abperrors.Wrap(abperrors.Internal, "mongostore: list receipts", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, abperrors.Wrap(abperrors.Internal, "mongostore: decode receipt ids", err)
	}
	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Verify loads the receipt stored for runID and reports whether its
// recorded hash matches its recomputed content hash.
func (s *Store) Verify(ctx context.Context, runID uuid.UUID) (bool, error) {
	receipt, err := s.Load(ctx, runID)
	if err != nil {
		return false, err
	}
	return contract.VerifyHash(receipt), nil
}
