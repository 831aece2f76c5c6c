// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt tracks failed login attempts for one key (a normalized email).
type Attempt struct {
	Key          string     `bson:"key"`
	AttemptCount int        `bson:"attempt_count"` // Failed attempts in current window
	WindowStart  time.Time  `bson:"window_start"`  // When the current counting window started
	LockedUntil  *time.Time `bson:"locked_until"`  // Lockout expiry time (nil if not locked)
	LastAttempt  time.Time  `bson:"last_attempt"`  // Most recent attempt (for TTL cleanup)
	CreatedAt    time.Time  `bson:"created_at"`
}

// Store persists login lockouts so they hold across restarts and instances.
type Store struct {
	c               *mongo.Collection
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	now             func() time.Time
}

// New creates a new rate limit Store with the given configuration.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	return &Store{
		c:               db.Collection("rate_limits"),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
		now:             time.Now,
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// CheckAllowed reports whether key may attempt a login now. When it may
// not, lockedUntil says when the lockout ends. Lookup errors fail open.
func (s *Store) CheckAllowed(ctx context.Context, key string) (allowed bool, lockedUntil *time.Time) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"key": normalizeKey(key)}).Decode(&a)
	if err != nil {
		return true, nil
	}
	if a.LockedUntil != nil && s.now().Before(*a.LockedUntil) {
		return false, a.LockedUntil
	}
	return true, nil
}

// RecordFailure counts a failed attempt and starts a lockout when the
// window's limit is reached. Each step is a single atomic update, so
// concurrent failures are all counted.
func (s *Store) RecordFailure(ctx context.Context, key string) (lockedOut bool, lockedUntil *time.Time) {
	key = normalizeKey(key)
	now := s.now().UTC()

	// Start a fresh window if the old one lapsed and no lockout is running.
	_, _ = s.c.UpdateOne(ctx,
		bson.M{
			"key":          key,
			"window_start": bson.M{"$lte": now.Add(-s.windowDuration)},
			"$or": bson.A{
				bson.M{"locked_until": nil},
				bson.M{"locked_until": bson.M{"$lte": now}},
			},
		},
		bson.M{"$set": bson.M{"attempt_count": 0, "window_start": now, "locked_until": nil}},
	)

	var a Attempt
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"key": key},
		bson.M{
			"$inc":         bson.M{"attempt_count": 1},
			"$set":         bson.M{"last_attempt": now},
			"$setOnInsert": bson.M{"window_start": now, "created_at": now, "locked_until": nil},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		// On error, don't lock (fail open)
		return false, nil
	}

	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return true, a.LockedUntil
	}
	if a.AttemptCount < s.maxAttempts {
		return false, nil
	}

	until := now.Add(s.lockoutDuration)
	_, err = s.c.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{"locked_until": until}})
	if err != nil {
		return false, nil
	}
	return true, &until
}

// ClearOnSuccess removes the record for key after a successful login.
func (s *Store) ClearOnSuccess(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": normalizeKey(key)})
	return err
}

// GetAttempt returns the current record for key, or nil if there is none.
func (s *Store) GetAttempt(ctx context.Context, key string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"key": normalizeKey(key)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
