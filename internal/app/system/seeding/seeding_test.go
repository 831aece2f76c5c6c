package seeding

import (
	"testing"

	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.uber.org/zap"
)

func TestSeedAdmin_CreatesOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admins := adminstore.New(db)
	seed := Admin{Email: "Owner@Example.com", Name: "Owner", Password: "initial-pass"}

	if err := SeedAdmin(ctx, admins, seed, zap.NewNop()); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	a, err := admins.GetByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if a.Name != "Owner" {
		t.Errorf("name = %q, want Owner", a.Name)
	}
	if !authutil.CheckPassword("initial-pass", a.PasswordHash) {
		t.Error("seeded password does not verify")
	}

	// A second run with a different password must not overwrite the account.
	seed.Password = "other-pass"
	if err := SeedAdmin(ctx, admins, seed, zap.NewNop()); err != nil {
		t.Fatalf("second SeedAdmin: %v", err)
	}
	again, err := admins.GetByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !authutil.CheckPassword("initial-pass", again.PasswordHash) {
		t.Error("existing password was replaced")
	}
	if n, _ := admins.Count(ctx); n != 1 {
		t.Errorf("admin count = %d, want 1", n)
	}
}

func TestSeedAdmin_SkipsWithoutPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admins := adminstore.New(db)
	if err := SeedAdmin(ctx, admins, Admin{Email: "owner@example.com"}, zap.NewNop()); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	if n, _ := admins.Count(ctx); n != 0 {
		t.Errorf("admin count = %d, want 0", n)
	}
}

func TestSeedAdmin_RejectsShortPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := SeedAdmin(ctx, adminstore.New(db), Admin{Email: "owner@example.com", Password: "123"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected a password validation error")
	}
}
