package otpstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type challenge struct {
	Email     string    `bson:"email"`
	Code      string    `bson:"code"`
	Attempts  int       `bson:"attempts"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoStore keeps challenges in the otp_challenges collection. The TTL
// index on expires_at reaps old documents; queries also filter on it since
// the reaper runs only about once a minute.
type MongoStore struct {
	c           *mongo.Collection
	maxAttempts int
	now         func() time.Time
}

// NewMongo creates a Mongo-backed Store. maxAttempts wrong codes discard a
// challenge; 0 means no limit.
func NewMongo(db *mongo.Database, maxAttempts int) *MongoStore {
	return &MongoStore{c: db.Collection("otp_challenges"), maxAttempts: maxAttempts, now: time.Now}
}

// Put implements Store.
func (s *MongoStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	email = normalize.Email(email)
	now := s.now().UTC()
	doc := challenge{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	_, err := s.c.ReplaceOne(ctx, bson.M{"email": email}, doc, options.Replace().SetUpsert(true))
	return err
}

// Consume implements Store.
func (s *MongoStore) Consume(ctx context.Context, email, code string) error {
	email = normalize.Email(email)
	now := s.now().UTC()
	live := bson.M{"email": email, "expires_at": bson.M{"$gt": now}}

	match := bson.M{
		"email":      email,
		"code":       code,
		"expires_at": bson.M{"$gt": now},
	}
	if s.maxAttempts > 0 {
		match["attempts"] = bson.M{"$lt": s.maxAttempts}
	}
	err := s.c.FindOneAndDelete(ctx, match).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	// Wrong code or no challenge: count the guess against a live one.
	var after challenge
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.c.FindOneAndUpdate(ctx, live, bson.M{"$inc": bson.M{"attempts": 1}}, opts).Decode(&after)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoChallenge
	}
	if err != nil {
		return err
	}
	if s.maxAttempts > 0 {
		if after.Attempts > s.maxAttempts {
			return ErrNoChallenge
		}
		if after.Attempts == s.maxAttempts {
			_, _ = s.c.DeleteOne(ctx, bson.M{"email": email, "attempts": bson.M{"$gte": s.maxAttempts}})
		}
	}
	return ErrMismatch
}
