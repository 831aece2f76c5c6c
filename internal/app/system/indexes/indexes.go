// Package indexes reconciles the MongoDB indexes every collection needs.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll reconciles every collection's indexes. Each set is idempotent;
// failures are collected so startup reports all of them at once.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"page_sections", ensurePageSections},
		{"admins", ensureAdmins},
		{"otp_challenges", ensureOTPChallenges},
		{"rate_limits", ensureRateLimits},
		{"revoked_tokens", ensureRevokedTokens},
		{"posts", ensurePosts},
		{"contact_messages", ensureContactMessages},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

// indexInfo is the subset of an index spec that decides whether an
// existing index can be reused.
type indexInfo struct {
	Name        string `bson:"name"`
	Key         bson.D `bson:"key"`
	Unique      bool   `bson:"unique,omitempty"`
	ExpireAfter *int32 `bson:"expireAfterSeconds,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func wanted(m mongo.IndexModel) indexInfo {
	info := indexInfo{Key: m.Keys.(bson.D)}
	if o := m.Options; o != nil {
		if o.Name != nil {
			info.Name = *o.Name
		}
		if o.Unique != nil {
			info.Unique = *o.Unique
		}
		info.ExpireAfter = o.ExpireAfterSeconds
	}
	return info
}

// compatible reports whether have can stand in for want.
func compatible(want, have indexInfo) bool {
	if want.Unique != have.Unique {
		return false
	}
	if (want.ExpireAfter == nil) != (have.ExpireAfter == nil) {
		return false
	}
	return want.ExpireAfter == nil || *want.ExpireAfter == *have.ExpireAfter
}

// existingBySig lists the collection's indexes keyed by key signature.
// A missing collection simply has none.
func existingBySig(ctx context.Context, coll *mongo.Collection) map[string]indexInfo {
	out := map[string]indexInfo{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx indexInfo
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// IndexOptionsConflict: same keys already indexed under another name or options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := existingBySig(ctx, coll)
	var errs []string

	for _, m := range models {
		want := wanted(m)
		sig := keySig(want.Key)
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", want.Name),
			zap.String("keys", sig),
			zap.Bool("unique", want.Unique))

		if have, ok := existing[sig]; ok {
			if compatible(want, have) {
				log.Info("reusing existing index", zap.String("existing_name", have.Name))
				continue
			}
			// Options changed (e.g. now unique or a new TTL): drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, have.Name); err != nil {
				log.Warn("drop existing index failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), want.Name, err))
				continue
			}
			log.Info("dropped index with outdated options", zap.String("existing_name", have.Name))
		}

		start := time.Now()
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			log.Warn("index ensure failed", zap.Error(err))
			switch {
			case want.Unique && wafflemongo.IsDup(err):
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), want.Name))
			case isOptionsConflictErr(err):
				errs = append(errs, fmt.Sprintf("%s(%s): options conflict: %v", coll.Name(), want.Name, err))
			default:
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), want.Name, err))
			}
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensurePageSections(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("page_sections")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One document per (page, section); also serves per-page listing.
		{
			Keys: bson.D{
				{Key: "page", Value: 1},
				{Key: "section", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_page_section"),
		},
	})
}

func ensureAdmins(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("admins")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_admins_email_ci"),
		},
	})
}

func ensureOTPChallenges(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("otp_challenges")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one live challenge per email; issuing replaces it.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_otp_email"),
		},
		// Mongo removes challenges once expires_at passes.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_otp_ttl"),
		},
	})
}

func ensureRateLimits(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("rate_limits")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_ratelimit_key"),
		},
		// Clean up idle records after 24 hours
		{
			Keys:    bson.D{{Key: "last_attempt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(86400).SetName("idx_ratelimit_ttl"),
		},
	})
}

func ensureRevokedTokens(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("revoked_tokens")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "jti", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_revoked_jti"),
		},
		// A revoked token only matters until it would have expired anyway.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_revoked_ttl"),
		},
	})
}

func ensurePosts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("posts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
			// Posts imported without a slug are exempt until generate-slugs runs.
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slug": bson.M{"$gt": ""}}).
				SetName("uniq_posts_slug"),
		},
		// Public listing: published posts, newest first, optionally by category
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "category", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_posts_status_category_created"),
		},
		{
			Keys: bson.D{
				{Key: "tags", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_posts_tags_created"),
		},
	})
}

func ensureContactMessages(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("contact_messages")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("idx_contact_created"),
		},
	})
}
