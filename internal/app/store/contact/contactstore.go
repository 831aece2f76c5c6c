// internal/app/store/contact/contactstore.go
package contactstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no message matches.
var ErrNotFound = errors.New("message not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contact_messages")}
}

// Create stores a submission. Fields are expected to be validated.
func (s *Store) Create(ctx context.Context, m models.ContactMessage) (*models.ContactMessage, error) {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns messages newest first, one page at a time.
func (s *Store) List(ctx context.Context, page, limit int64) ([]models.ContactMessage, int64, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	msgs := []models.ContactMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// Get returns one message.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.ContactMessage, error) {
	var m models.ContactMessage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Delete removes one message.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
