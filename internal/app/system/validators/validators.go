// Package validators creates the app's collections and attaches JSON-Schema
// validators where the server supports them.
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates missing collections and attaches their JSON-Schema
// validators. Servers without collMod validator support (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	have, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		// Fall back to create-and-tolerate-exists for every collection.
		zap.L().Warn("listCollections failed", zap.Error(err))
	}
	exists := make(map[string]bool, len(have))
	for _, n := range have {
		exists[n] = true
	}

	var problems []string
	for _, c := range Collections() {
		if err := ensureCollection(ctx, db, c.Name, exists[c.Name]); err != nil {
			problems = append(problems, c.Name+": "+err.Error())
			continue
		}
		if c.Schema == nil {
			continue
		}
		if err := setValidator(ctx, db, c.Name, c.Schema); err != nil {
			if unsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.Name))
				continue
			}
			problems = append(problems, c.Name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Collection pairs a collection name with its validator (nil for none).
type Collection struct {
	Name   string
	Schema bson.M
}

// Collections lists every collection the app owns.
func Collections() []Collection {
	return []Collection{
		{"page_sections", pageSectionsSchema()},
		{"admins", adminsSchema()},
		{"posts", postsSchema()},
		{"contact_messages", contactMessagesSchema()},
		{"otp_challenges", nil},
		{"rate_limits", nil},
		{"revoked_tokens", nil},
	}
}

/* --------------------------- collection helpers -------------------------- */

func ensureCollection(ctx context.Context, db *mongo.Database, name string, exists bool) error {
	if exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// Another instance may have created it since we listed.
		if hasCode(err, codeNamespaceExists, "already exists", "namespace exists") {
			zap.L().Info("collection exists", zap.String("collection", name))
			return nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------------ error helpers ---------------------------- */

const (
	codeNamespaceExists     = 48
	codeCommandNotFound     = 59
	codeCommandNotSupported = 115
)

// hasCode matches a server error by code, falling back to message text for
// servers that report a different code.
func hasCode(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func unsupported(err error) bool {
	return hasCode(err, codeCommandNotFound, "no such command") ||
		hasCode(err, codeCommandNotSupported, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func pageSectionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"page", "section", "content"},
			"properties": bson.M{
				"page":    nonBlank,
				"section": bson.M{"bsonType": "string", "pattern": "^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$"},
				"content": bson.M{"bsonType": bson.A{"object", "array", "string", "double", "int", "long", "bool", "null"}},
			},
		},
	}
}

func adminsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "email_ci", "password_hash", "name"},
			"properties": bson.M{
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"password_hash": nonBlank,
				"name":          nonBlank,
				"phone":         bson.M{"bsonType": bson.A{"string", "null"}},
				"avatar_path":   bson.M{"bsonType": bson.A{"string", "null"}},
			},
		},
	}
}

func postsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "slug", "status"},
			"properties": bson.M{
				"title":  nonBlank,
				"slug":   bson.M{"bsonType": "string"},
				"status": bson.M{"enum": bson.A{"draft", "published"}},
				"tags":   bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func contactMessagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "message"},
			"properties": bson.M{
				"name":    nonBlank,
				"email":   nonBlank,
				"message": nonBlank,
			},
		},
	}
}
