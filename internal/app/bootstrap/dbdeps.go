// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratasite/internal/app/system/assets"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler, and Shutdown.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis backs the OTP store; nil when redis_url is unset.
	Redis redis.UniversalClient

	// FileStorage holds uploaded images; Assets addresses them.
	FileStorage storage.Store
	Assets      *assets.Manager

	// Mailer sends OTP codes and contact notifications.
	Mailer *mailer.Mailer
}
