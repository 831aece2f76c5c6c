// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"
	"strings"

	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.uber.org/zap"
)

// Admin describes the account to seed. An empty Password disables seeding.
type Admin struct {
	Email    string
	Name     string
	Password string
}

// SeedAdmin creates the admin account if none exists for a.Email.
// An existing account is left untouched, including its password.
func SeedAdmin(ctx context.Context, admins *adminstore.Store, a Admin, logger *zap.Logger) error {
	email := strings.TrimSpace(a.Email)
	if email == "" || a.Password == "" {
		logger.Debug("admin seeding skipped (no email or password configured)")
		return nil
	}

	existing, err := admins.GetByEmail(ctx, email)
	if err == nil {
		logger.Debug("admin account already exists", zap.String("admin_id", existing.ID.Hex()))
		return nil
	}
	if !errors.Is(err, adminstore.ErrNotFound) {
		return err
	}

	if err := authutil.ValidatePassword(a.Password); err != nil {
		return err
	}
	hash, err := authutil.HashPassword(a.Password)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = "Admin"
	}

	created, err := admins.Create(ctx, models.Admin{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if errors.Is(err, adminstore.ErrDuplicateEmail) {
		// Another instance seeded it first.
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("created admin account",
		zap.String("email", created.Email),
		zap.String("admin_id", created.ID.Hex()))
	return nil
}
