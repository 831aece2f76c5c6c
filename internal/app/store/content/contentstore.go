// internal/app/store/content/contentstore.go
package contentstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no section exists for (page, section).
	ErrNotFound = errors.New("section not found")
	// ErrDuplicate is returned by Create when the section already exists.
	ErrDuplicate = errors.New("section already exists")
	// ErrNotObject is returned by MergeFields when the stored content is
	// not an object and so has no fields to merge into.
	ErrNotObject = errors.New("section content is not an object")
)

// Store provides access to the page_sections collection.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a new content store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("page_sections"), now: time.Now}
}

func key(page, section string) bson.M {
	return bson.M{"page": page, "section": section}
}

// List returns every section of page in creation order.
func (s *Store) List(ctx context.Context, page string) ([]models.Section, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"page": page}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Section{}
	for cur.Next(ctx) {
		var sec models.Section
		if err := cur.Decode(&sec); err != nil {
			return nil, err
		}
		sec.Content = Normalize(sec.Content)
		out = append(out, sec)
	}
	return out, cur.Err()
}

// Get returns one section or ErrNotFound.
func (s *Store) Get(ctx context.Context, page, section string) (*models.Section, error) {
	return s.decodeOne(s.c.FindOne(ctx, key(page, section)))
}

// Create inserts a new section. It fails with ErrDuplicate if one exists.
func (s *Store) Create(ctx context.Context, page, section string, content any) (*models.Section, error) {
	now := s.now().UTC()
	sec := models.Section{
		ID:        primitive.NewObjectID(),
		Page:      page,
		Section:   section,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, sec); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &sec, nil
}

// Replace upserts the whole content value of a section. It returns the
// stored entry and the previous one (nil when this call created it).
func (s *Store) Replace(ctx context.Context, page, section string, content any) (cur, prev *models.Section, err error) {
	now := s.now().UTC()
	id := primitive.NewObjectID()
	update := bson.M{
		"$set": bson.M{
			"content":    content,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        id,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	prev, err = s.decodeOne(s.c.FindOneAndUpdate(ctx, key(page, section), update, opts))
	switch {
	case errors.Is(err, ErrNotFound):
		prev = nil
	case err != nil:
		return nil, nil, s.upsertErr(err)
	}

	cur = &models.Section{
		ID:        id,
		Page:      page,
		Section:   section,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev != nil {
		cur.ID = prev.ID
		cur.CreatedAt = prev.CreatedAt
	}
	return cur, prev, nil
}

// MergeFields sets each dotted field path under content without touching
// sibling fields, creating the section if it does not exist. It returns the
// stored entry and the previous one (nil when this call created it).
func (s *Store) MergeFields(ctx context.Context, page, section string, fields map[string]any) (cur, prev *models.Section, err error) {
	now := s.now().UTC()
	set := bson.M{"updated_at": now}
	for k, v := range fields {
		set["content."+k] = v
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	prev, err = s.decodeOne(s.c.FindOneAndUpdate(ctx, key(page, section), update, opts))
	switch {
	case errors.Is(err, ErrNotFound):
		prev = nil
	case err != nil:
		if isPathConflict(err) {
			return nil, nil, ErrNotObject
		}
		return nil, nil, s.upsertErr(err)
	}

	cur, err = s.Get(ctx, page, section)
	if err != nil {
		return nil, nil, err
	}
	return cur, prev, nil
}

// Delete removes a section and returns what was removed.
func (s *Store) Delete(ctx context.Context, page, section string) (*models.Section, error) {
	return s.decodeOne(s.c.FindOneAndDelete(ctx, key(page, section)))
}

func (s *Store) decodeOne(res *mongo.SingleResult) (*models.Section, error) {
	var sec models.Section
	if err := res.Decode(&sec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sec.Content = Normalize(sec.Content)
	return &sec, nil
}

// upsertErr maps the duplicate-key race between two concurrent first
// writes to ErrDuplicate; callers may retry.
func (s *Store) upsertErr(err error) error {
	if wafflemongo.IsDup(err) {
		return ErrDuplicate
	}
	return err
}

// isPathConflict matches "Cannot create field ... in element" style errors
// raised when $set walks into a non-document value.
func isPathConflict(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 28 || ce.Code == 2) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 28 || e.Code == 2 {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), "Cannot create field")
}
