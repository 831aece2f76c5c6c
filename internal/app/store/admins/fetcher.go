// internal/app/store/admins/fetcher.go
package adminstore

import (
	"context"

	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.AdminFetcher to load fresh account data on each
// request, so a deleted account stops authenticating immediately.
type Fetcher struct {
	admins *mongo.Collection
	logger *zap.Logger
}

// NewFetcher creates an AdminFetcher that queries the given database.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		admins: db.Collection("admins"),
		logger: logger,
	}
}

// FetchAdmin retrieves an admin by ID and returns nil if the account is
// missing or if any error occurs.
func (f *Fetcher) FetchAdmin(ctx context.Context, id string) *models.Admin {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	// The password hash never leaves the store on this path.
	proj := options.FindOne().SetProjection(bson.M{"password_hash": 0})

	var a models.Admin
	if err := f.admins.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&a); err != nil {
		if err != mongo.ErrNoDocuments {
			f.logger.Warn("admin lookup failed", zap.String("id", id), zap.Error(err))
		}
		return nil
	}
	return &a
}
