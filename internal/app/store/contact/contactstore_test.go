package contactstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var last *models.ContactMessage
	for _, name := range []string{"A", "B", "C"} {
		m, err := store.Create(ctx, models.ContactMessage{Name: name, Email: "x@example.com", Message: "hi"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		last = m
	}

	msgs, total, err := store.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 || len(msgs) != 2 || msgs[0].Name != "C" {
		t.Errorf("List() total=%d len=%d first=%v", total, len(msgs), msgs)
	}

	got, err := store.Get(ctx, last.ID)
	if err != nil || got.Name != "C" {
		t.Errorf("Get() = %v, %v", got, err)
	}

	if err := store.Delete(ctx, last.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, last.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() missing err = %v, want ErrNotFound", err)
	}
}
