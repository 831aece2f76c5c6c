package validators

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll() error = %v", err)
	}
	// Run twice to verify idempotency
	if err := EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll() error = %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames() error = %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, c := range Collections() {
		if !have[c.Name] {
			t.Errorf("collection %s should exist after EnsureAll", c.Name)
		}
	}
}

func TestPageSectionsValidator_RejectsMissingContent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll() error = %v", err)
	}

	coll := db.Collection("page_sections")
	if _, err := coll.InsertOne(ctx, bson.M{"page": "home", "section": "hero"}); err == nil {
		t.Error("insert without content should fail validation")
	}
	if _, err := coll.InsertOne(ctx, bson.M{"page": "home", "section": "bad id!", "content": bson.M{}}); err == nil {
		t.Error("insert with invalid section id should fail validation")
	}
	if _, err := coll.InsertOne(ctx, bson.M{"page": "home", "section": "hero", "content": bson.M{"title": "x"}}); err != nil {
		t.Errorf("valid insert failed: %v", err)
	}
}

func TestEnsureCollection_ToleratesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureCollection(ctx, db, "scratch", false); err != nil {
		t.Fatalf("first ensureCollection() error = %v", err)
	}
	// A stale listing that missed the collection must not fail.
	if err := ensureCollection(ctx, db, "scratch", false); err != nil {
		t.Fatalf("second ensureCollection() error = %v", err)
	}
	names, err := db.ListCollectionNames(ctx, bson.M{"name": "scratch"})
	if err != nil || len(names) != 1 {
		t.Fatalf("scratch collection listing = %v, %v", names, err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		exists      bool
		unsupported bool
	}{
		{"nil", nil, false, false},
		{"generic", errors.New("some error"), false, false},
		{"exists by code", mongo.CommandError{Code: 48, Message: "x"}, true, false},
		{"exists by message", errors.New("Collection ALREADY EXISTS"), true, false},
		{"no such command code", mongo.CommandError{Code: 59, Message: "x"}, false, true},
		{"no such command message", errors.New("no such command: collMod"), false, true},
		{"not supported code", mongo.CommandError{Code: 115, Message: "x"}, false, true},
		{"not implemented message", mongo.CommandError{Message: "Feature not implemented"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasCode(tt.err, codeNamespaceExists, "already exists", "namespace exists"); got != tt.exists {
				t.Errorf("namespace exists = %v, want %v", got, tt.exists)
			}
			if got := unsupported(tt.err); got != tt.unsupported {
				t.Errorf("unsupported = %v, want %v", got, tt.unsupported)
			}
		})
	}
}

func TestSchemas_HaveRequiredFields(t *testing.T) {
	for _, c := range Collections() {
		if c.Schema == nil {
			continue
		}
		t.Run(c.Name, func(t *testing.T) {
			jsonSchema, ok := c.Schema["$jsonSchema"].(bson.M)
			if !ok {
				t.Fatalf("$jsonSchema should be a bson.M, got %T", c.Schema["$jsonSchema"])
			}
			required, ok := jsonSchema["required"].(bson.A)
			if !ok || len(required) == 0 {
				t.Error("schema should list required fields")
			}
		})
	}
}
