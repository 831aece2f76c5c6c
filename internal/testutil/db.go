// Package testutil provides shared fixtures for tests: a throwaway MongoDB
// database per test and request builders for handler tests.
package testutil

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultMongoURI is used unless STRATASITE_TEST_MONGO_URI is set.
	DefaultMongoURI = "mongodb://localhost:27017"
	// dbPrefix starts every test database name.
	dbPrefix = "sstest_"
	// maxDBName is MongoDB's database name limit.
	maxDBName = 63
)

var (
	connectOnce sync.Once
	shared      *mongo.Client
	connectErr  error
)

// MongoURI returns the server tests connect to.
func MongoURI() string {
	if u := os.Getenv("STRATASITE_TEST_MONGO_URI"); u != "" {
		return u
	}
	return DefaultMongoURI
}

func client() (*mongo.Client, error) {
	connectOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Sized for parallel packages sharing one server.
		opts := options.Client().
			ApplyURI(MongoURI()).
			SetMaxPoolSize(200).
			SetMinPoolSize(5).
			SetServerSelectionTimeout(10 * time.Second)

		shared, connectErr = mongo.Connect(ctx, opts)
		if connectErr == nil {
			connectErr = shared.Ping(ctx, nil)
		}
	})
	return shared, connectErr
}

// SetupTestDB returns an empty database with production indexes, dropped
// again when the test ends. The name combines the package directory and
// the test name, so same-named tests in different packages never share
// a database.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := client()
	if err != nil {
		t.Fatalf("failed to connect to test MongoDB at %s: %v", MongoURI(), err)
	}

	db := c.Database(DBName(packageDir(), t.Name()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("failed to drop test database: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("warning: failed to drop test database %s: %v", db.Name(), err)
		}
	})
	return db
}

// DBName builds a valid database name for pkg and test. Long names are
// truncated and made unique with a short hash of the full name.
func DBName(pkg, test string) string {
	full := pkg + "_" + test
	var b strings.Builder
	for _, c := range full {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	name := dbPrefix + b.String()
	if len(name) <= maxDBName {
		return name
	}
	sum := sha1.Sum([]byte(full))
	tag := hex.EncodeToString(sum[:4])
	return name[:maxDBName-len(tag)-1] + "_" + tag
}

// packageDir names the package under test by its last two path elements
// (e.g. "store_content"); go test runs each package in its own directory.
func packageDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "pkg"
	}
	return filepath.Base(filepath.Dir(wd)) + "_" + filepath.Base(wd)
}

// TestContext returns a context with a reasonable timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
