// internal/app/store/revoked/revokedstore.go
package revokedstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store records token ids invalidated by logout. Entries are reaped by a
// TTL index once the token would have expired on its own.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("revoked_tokens")}
}

// Revoke marks jti as revoked until expiresAt. Revoking twice is a no-op.
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"jti": jti},
		bson.M{"$setOnInsert": bson.M{
			"jti":        jti,
			"expires_at": expiresAt.UTC(),
			"revoked_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// IsRevoked implements auth.RevocationList.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"jti": jti}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
