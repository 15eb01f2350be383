package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

const (
	kvCollection  = "kv"
	maxCASRetries = 16
)

// ErrConflict is returned when an update keeps losing to concurrent writers.
var ErrConflict = errors.New("mongo: too many concurrent updates")

// KVStore stores each key as one document. Version is bumped on every write
// and used as the compare-and-swap token for Update.
type KVStore struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewKVStore(db *mongo.Database) *KVStore {
	return &KVStore{db: db, coll: db.Collection(kvCollection)}
}

type kvDoc struct {
	Key     string `bson:"_id"`
	Value   []byte `bson:"value"`
	Version int64  `bson:"version"`
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.find(ctx, key)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.Value, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}, "$inc": bson.M{"version": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Update reads the document, applies fn and writes back only if the version
// is unchanged. A missing key is created with InsertOne, so two racing
// creators collide on the _id unique index and one of them retries.
func (s *KVStore) Update(ctx context.Context, key string, fn ports.UpdateFunc) error {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		doc, err := s.find(ctx, key)
		if err != nil {
			return err
		}

		var current []byte
		if doc != nil {
			current = doc.Value
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		ok, err := s.swap(ctx, key, doc, next)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrConflict
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *KVStore) find(ctx context.Context, key string) (*kvDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc kvDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", key, err)
	}
	return &doc, nil
}

func (s *KVStore) swap(ctx context.Context, key string, prev *kvDoc, next []byte) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if prev == nil {
		_, err := s.coll.InsertOne(ctx, kvDoc{Key: key, Value: next, Version: 1})
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("insert %s: %w", key, err)
		}
		return true, nil
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key, "version": prev.Version},
		bson.M{"$set": bson.M{"value": next, "version": prev.Version + 1}},
	)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", key, err)
	}
	return res.MatchedCount == 1, nil
}
