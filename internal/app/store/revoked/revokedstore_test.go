package revokedstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/testutil"
)

func TestStore_RevokeAndCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked() error = %v", err)
	}
	if revoked {
		t.Error("unknown jti should not be revoked")
	}

	exp := time.Now().Add(time.Hour)
	if err := store.Revoke(ctx, "jti-1", exp); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if err := store.Revoke(ctx, "jti-1", exp); err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}

	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked() error = %v", err)
	}
	if !revoked {
		t.Error("jti-1 should be revoked")
	}

	if revoked, _ := store.IsRevoked(ctx, ""); revoked {
		t.Error("empty jti should never be revoked")
	}
}
