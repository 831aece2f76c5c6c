// internal/app/store/posts/poststore.go
package poststore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no post matches.
	ErrNotFound = errors.New("post not found")
	// ErrSlugExhausted is returned when no free slug could be found.
	ErrSlugExhausted = errors.New("could not allocate a unique slug")
)

// maxSlugTries bounds the "-2", "-3", ... suffix search.
const maxSlugTries = 50

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts"), now: time.Now}
}

func slugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// Create inserts p. p.Slug is the desired base slug; a numeric suffix is
// added when it is taken. The unique index settles races.
func (s *Store) Create(ctx context.Context, p models.Post) (*models.Post, error) {
	now := s.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Tags == nil {
		p.Tags = []string{}
	}
	base := p.Slug

	for n := 1; n <= maxSlugTries; n++ {
		p.ID = primitive.NewObjectID()
		p.Slug = slugCandidate(base, n)
		_, err := s.c.InsertOne(ctx, p)
		if err == nil {
			return &p, nil
		}
		if !wafflemongo.IsDup(err) {
			return nil, err
		}
	}
	return nil, ErrSlugExhausted
}

// Update holds the fields of a post that may change. Nil fields are left
// untouched. Slug, when set, is a base slug subject to suffixing.
type Update struct {
	Title    *string
	Slug     *string
	Duration *string
	Category *string
	Tags     *[]string
	Body     *string
	Author   *string
	Status   *string
}

// Update applies upd and returns the updated post.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Post, error) {
	set := bson.M{"updated_at": s.now().UTC()}
	put := func(k string, v *string) {
		if v != nil {
			set[k] = *v
		}
	}
	put("title", upd.Title)
	put("duration", upd.Duration)
	put("category", upd.Category)
	put("body", upd.Body)
	put("author", upd.Author)
	put("status", upd.Status)
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}

	tries := 1
	if upd.Slug != nil {
		tries = maxSlugTries
	}
	for n := 1; n <= tries; n++ {
		if upd.Slug != nil {
			set["slug"] = slugCandidate(*upd.Slug, n)
		}
		p, err := s.findOneAndSet(ctx, id, set)
		if err == nil {
			return p, nil
		}
		if !wafflemongo.IsDup(err) {
			return nil, err
		}
	}
	return nil, ErrSlugExhausted
}

func (s *Store) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Post, error) {
	var p models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SetFeaturedImage stores path on the post and returns the previous path.
func (s *Store) SetFeaturedImage(ctx context.Context, id primitive.ObjectID, path string) (prev string, err error) {
	var before models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	update := bson.M{"$set": bson.M{"featured_image": path, "updated_at": s.now().UTC()}}
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&before); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", err
	}
	return before.FeaturedImage, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get returns a post by id. publishedOnly hides drafts.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID, publishedOnly bool) (*models.Post, error) {
	filter := bson.M{"_id": id}
	if publishedOnly {
		filter["status"] = models.PostStatusPublished
	}
	return s.findOne(ctx, filter)
}

// GetBySlug returns a published post by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, bson.M{"slug": slug, "status": models.PostStatusPublished})
}

// Filter narrows the public listing.
type Filter struct {
	Category string
	Tag      string
}

// ListPublished returns one page of published posts, newest first, without
// bodies, and the total number of matching posts.
func (s *Store) ListPublished(ctx context.Context, f Filter, page, limit int64) ([]models.Post, int64, error) {
	q := bson.M{"status": models.PostStatusPublished}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Tag != "" {
		q["tags"] = f.Tag
	}

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"body": 0})
	posts, err := s.find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListAll returns every post, newest first.
func (s *Store) ListAll(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{}, opts)
}

func (s *Store) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Delete removes a post and returns it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Categories returns the distinct non-empty categories.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "category")
}

// Tags returns the distinct tags across all posts.
func (s *Store) Tags(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "tags")
}

func (s *Store) distinct(ctx context.Context, field string) ([]string, error) {
	vals, err := s.c.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

// WithoutSlug returns posts whose slug is missing or empty.
func (s *Store) WithoutSlug(ctx context.Context) ([]models.Post, error) {
	q := bson.M{"$or": bson.A{
		bson.M{"slug": bson.M{"$exists": false}},
		bson.M{"slug": ""},
		bson.M{"slug": nil},
	}}
	return s.find(ctx, q, options.Find())
}
