// Package otpstore holds one-time passcode challenges in an expiring store.
//
// Two backends implement Store: Redis (keys with a TTL) and MongoDB (a
// collection with a TTL index). Both survive restarts and are shared by
// every server instance.
package otpstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	// ErrNoChallenge means no live challenge exists: never issued, already
	// used, expired, or burned by too many wrong guesses.
	ErrNoChallenge = errors.New("no active verification code")
	// ErrMismatch means a challenge exists but the code is wrong. The
	// challenge is not consumed unless this guess used up the attempts.
	ErrMismatch = errors.New("verification code does not match")
)

// DefaultMaxAttempts is the wrong-code allowance when none is configured.
const DefaultMaxAttempts = 5

// Store issues and consumes challenges keyed by email.
type Store interface {
	// Put records code for email, replacing any earlier challenge.
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume removes the challenge if code matches. It succeeds at most
	// once per issued code. When a store has an attempt limit, the guess
	// that reaches it also removes the challenge.
	Consume(ctx context.Context, email, code string) error
}

// GenerateCode returns a uniformly random 4-digit code in 1000-9999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
