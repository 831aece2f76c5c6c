// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	"github.com/dalemusser/stratasite/internal/app/system/seeding"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It seeds the admin account when seed_admin_password is set. Returning a
// non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	seed := seeding.Admin{
		Email:    appCfg.AdminEmail,
		Name:     appCfg.SeedAdminName,
		Password: appCfg.SeedAdminPassword,
	}
	if err := seeding.SeedAdmin(ctx, adminstore.New(deps.MongoDatabase), seed, logger); err != nil {
		logger.Error("failed to seed admin account", zap.Error(err))
		return err
	}
	return nil
}
