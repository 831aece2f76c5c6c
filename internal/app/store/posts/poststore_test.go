package poststore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string { return &s }

func newPost(title, slug, status, category string, tags ...string) models.Post {
	return models.Post{
		Title:    title,
		Slug:     slug,
		Status:   status,
		Category: category,
		Tags:     tags,
		Body:     "<p>" + title + "</p>",
		Author:   "Admin",
	}
}

func TestStore_Create_UniqueSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, newPost("Hello", "hello", models.PostStatusDraft, ""))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := store.Create(ctx, newPost("Hello", "hello", models.PostStatusDraft, ""))
	if err != nil {
		t.Fatalf("Create() second error = %v", err)
	}
	c, err := store.Create(ctx, newPost("Hello", "hello", models.PostStatusDraft, ""))
	if err != nil {
		t.Fatalf("Create() third error = %v", err)
	}
	if a.Slug != "hello" || b.Slug != "hello-2" || c.Slug != "hello-3" {
		t.Errorf("slugs = %q, %q, %q", a.Slug, b.Slug, c.Slug)
	}
	if a.Tags == nil {
		t.Error("Tags should default to an empty slice")
	}
}

func TestStore_ListPublished(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, p := range []models.Post{
		newPost("One", "one", models.PostStatusPublished, "news", "go"),
		newPost("Two", "two", models.PostStatusPublished, "news"),
		newPost("Three", "three", models.PostStatusPublished, "tips", "go"),
		newPost("Draft", "draft", models.PostStatusDraft, "news", "go"),
	} {
		if _, err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", p.Title, err)
		}
	}

	posts, total, err := store.ListPublished(ctx, Filter{}, 1, 2)
	if err != nil {
		t.Fatalf("ListPublished() error = %v", err)
	}
	if total != 3 || len(posts) != 2 {
		t.Fatalf("total=%d len=%d, want 3 and 2", total, len(posts))
	}
	if posts[0].Title != "Three" {
		t.Errorf("first post = %q, want newest (Three)", posts[0].Title)
	}
	if posts[0].Body != "" {
		t.Error("listing should omit bodies")
	}

	posts, total, _ = store.ListPublished(ctx, Filter{Category: "news"}, 1, 10)
	if total != 2 || len(posts) != 2 {
		t.Errorf("category filter total=%d len=%d, want 2", total, len(posts))
	}
	_, total, _ = store.ListPublished(ctx, Filter{Tag: "go"}, 1, 10)
	if total != 2 {
		t.Errorf("tag filter total=%d, want 2", total)
	}

	all, err := store.ListAll(ctx)
	if err != nil || len(all) != 4 {
		t.Errorf("ListAll() len=%d err=%v, want 4", len(all), err)
	}
}

func TestStore_GetAndSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	draft, _ := store.Create(ctx, newPost("Draft", "draft", models.PostStatusDraft, ""))
	pub, _ := store.Create(ctx, newPost("Pub", "pub", models.PostStatusPublished, ""))

	if _, err := store.Get(ctx, draft.ID, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(draft, publishedOnly) err = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, draft.ID, false); err != nil {
		t.Errorf("Get(draft) err = %v", err)
	}
	got, err := store.GetBySlug(ctx, "pub")
	if err != nil || got.ID != pub.ID {
		t.Errorf("GetBySlug() = %v, %v", got, err)
	}
	if _, err := store.GetBySlug(ctx, "draft"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySlug(draft) err = %v, want ErrNotFound", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, newPost("Taken", "taken", models.PostStatusDraft, ""))
	p, _ := store.Create(ctx, newPost("Mine", "mine", models.PostStatusDraft, "a"))

	tags := []string{"x", "y"}
	got, err := store.Update(ctx, p.ID, Update{
		Title:  strPtr("Taken"),
		Slug:   strPtr("taken"),
		Status: strPtr(models.PostStatusPublished),
		Tags:   &tags,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Slug != "taken-2" || got.Status != models.PostStatusPublished || len(got.Tags) != 2 {
		t.Errorf("updated = %+v", got)
	}
	if got.Category != "a" {
		t.Errorf("Category = %q, untouched field should be kept", got.Category)
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), Update{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing err = %v, want ErrNotFound", err)
	}
}

func TestStore_FeaturedImageAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, _ := store.Create(ctx, newPost("Img", "img", models.PostStatusDraft, ""))
	prev, err := store.SetFeaturedImage(ctx, p.ID, "/uploads/posts/a.png")
	if err != nil || prev != "" {
		t.Fatalf("SetFeaturedImage() = %q, %v", prev, err)
	}
	prev, _ = store.SetFeaturedImage(ctx, p.ID, "/uploads/posts/b.png")
	if prev != "/uploads/posts/a.png" {
		t.Errorf("prev = %q, want a.png", prev)
	}

	removed, err := store.Delete(ctx, p.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed.FeaturedImage != "/uploads/posts/b.png" {
		t.Errorf("removed.FeaturedImage = %q", removed.FeaturedImage)
	}
	if _, err := store.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() err = %v, want ErrNotFound", err)
	}
}

func TestStore_CategoriesTagsAndWithoutSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, newPost("A", "a", models.PostStatusPublished, "news", "go", "web"))
	store.Create(ctx, newPost("B", "b", models.PostStatusDraft, "", "go"))

	cats, err := store.Categories(ctx)
	if err != nil || len(cats) != 1 || cats[0] != "news" {
		t.Errorf("Categories() = %v, %v", cats, err)
	}
	tags, err := store.Tags(ctx)
	if err != nil || len(tags) != 2 {
		t.Errorf("Tags() = %v, %v", tags, err)
	}

	// Simulate an imported post without a slug.
	if _, err := db.Collection("posts").InsertOne(ctx, bson.M{
		"_id": primitive.NewObjectID(), "title": "Legacy", "slug": "", "status": "draft", "tags": bson.A{},
	}); err != nil {
		t.Fatalf("insert legacy: %v", err)
	}
	missing, err := store.WithoutSlug(ctx)
	if err != nil || len(missing) != 1 || missing[0].Title != "Legacy" {
		t.Errorf("WithoutSlug() = %v, %v", missing, err)
	}
}
