// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when an account with the email already exists.
	ErrDuplicateEmail = errors.New("an admin with this email already exists")
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("admin not found")
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admins"), now: time.Now}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetByID loads an admin by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up an admin by case/diacritic-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return s.findOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))})
}

// Create inserts a new admin. PasswordHash must already be set.
func (s *Store) Create(ctx context.Context, a models.Admin) (*models.Admin, error) {
	a.ID = primitive.NewObjectID()
	a.Email = normalize.Email(a.Email)
	a.EmailCI = text.Fold(a.Email)
	a.Name = normalize.Name(a.Name)

	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &a, nil
}

// SetPasswordByEmail replaces the password hash of the account with email.
func (s *Store) SetPasswordByEmail(ctx context.Context, email, hash string) error {
	return s.updateOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}, bson.M{"password_hash": hash})
}

// SetPassword replaces the password hash of the account with id.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, bson.M{"_id": id}, bson.M{"password_hash": hash})
}

// ProfileUpdate holds the profile fields that may change. Nil fields are
// left untouched; an empty Phone clears it.
type ProfileUpdate struct {
	Name       *string
	Phone      *string
	AvatarPath *string
}

// UpdateProfile applies upd and returns the account as it was before, so
// callers can clean up a replaced avatar.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (before *models.Admin, err error) {
	set := bson.M{"updated_at": s.now().UTC()}
	unset := bson.M{}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if upd.Phone != nil {
		if p := normalize.Phone(*upd.Phone); p != "" {
			set["phone"] = p
		} else {
			unset["phone"] = ""
		}
	}
	if upd.AvatarPath != nil {
		set["avatar_path"] = *upd.AvatarPath
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var a models.Admin
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) updateOne(ctx context.Context, filter, set bson.M) error {
	set["updated_at"] = s.now().UTC()
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of admin accounts.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
