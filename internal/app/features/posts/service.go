// Package posts serves the blog: a public read API over published posts and
// admin routes to write, illustrate and delete them.
package posts

import (
	"context"
	"errors"
	"io"
	"strings"

	poststore "github.com/dalemusser/stratasite/internal/app/store/posts"
	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/assets"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ImageDomain is the storage prefix for featured images.
const ImageDomain = "posts"

// DefaultAuthor is used when a post names no author.
const DefaultAuthor = "Admin"

// Service implements the blog operations.
type Service struct {
	store  *poststore.Store
	assets *assets.Manager
	logger *zap.Logger
}

// NewService creates a posts Service.
func NewService(store *poststore.Store, am *assets.Manager, logger *zap.Logger) *Service {
	return &Service{store: store, assets: am, logger: logger}
}

// Page is one page of the public listing.
type Page struct {
	Posts       []models.Post `json:"posts"`
	TotalPages  int64         `json:"totalPages"`
	CurrentPage int64         `json:"currentPage"`
	TotalPosts  int64         `json:"totalPosts"`
}

// ListPublished returns published posts, newest first, without bodies.
func (s *Service) ListPublished(ctx context.Context, f poststore.Filter, page, limit int64) (*Page, error) {
	limit, page = storeutil.Clamp(limit, page)
	list, total, err := s.store.ListPublished(ctx, f, page, limit)
	if err != nil {
		return nil, apperr.NewInternal("Failed to fetch posts", err)
	}
	return &Page{
		Posts:       list,
		TotalPages:  storeutil.TotalPages(total, limit),
		CurrentPage: page,
		TotalPosts:  total,
	}, nil
}

// ListAll returns every post including drafts.
func (s *Service) ListAll(ctx context.Context) ([]models.Post, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, apperr.NewInternal("Failed to fetch posts", err)
	}
	return list, nil
}

// GetPublished returns a published post by id.
func (s *Service) GetPublished(ctx context.Context, idHex string) (*models.Post, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, apperr.NewNotFound("Post not found or not published")
	}
	p, err := s.store.Get(ctx, id, true)
	if err != nil {
		return nil, storeErr(err, "Post not found or not published")
	}
	return p, nil
}

// GetBySlug returns a published post by slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := s.store.GetBySlug(ctx, normalize.QueryParam(slug))
	if err != nil {
		return nil, storeErr(err, "Post not found or not published")
	}
	return p, nil
}

// Categories returns the distinct categories in use.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	out, err := s.store.Categories(ctx)
	if err != nil {
		return nil, apperr.NewInternal("Failed to fetch categories", err)
	}
	return out, nil
}

// Tags returns the distinct tags in use.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	out, err := s.store.Tags(ctx)
	if err != nil {
		return nil, apperr.NewInternal("Failed to fetch tags", err)
	}
	return out, nil
}

// Input carries post fields from a request. Nil means not supplied.
type Input struct {
	Title    *string   `json:"title"`
	Slug     *string   `json:"slug"`
	Duration *string   `json:"duration"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
	Body     *string   `json:"body"`
	Author   *string   `json:"author"`
	Status   *string   `json:"status"`
}

type postCheck struct {
	Title    string `validate:"required,max=300" label:"Title"`
	Category string `validate:"max=100" label:"Category"`
	Duration string `validate:"max=50" label:"Duration"`
	Author   string `validate:"max=200" label:"Author"`
	Status   string `validate:"required,poststatus" label:"Status"`
}

// Create stores a new post. The slug is derived from the title unless one
// is given, and made unique with a numeric suffix.
func (s *Service) Create(ctx context.Context, in Input) (*models.Post, error) {
	p := models.Post{
		Title:    str(in.Title),
		Duration: strings.TrimSpace(str(in.Duration)),
		Category: strings.TrimSpace(str(in.Category)),
		Author:   normalize.Name(str(in.Author)),
		Status:   strings.TrimSpace(str(in.Status)),
		Body:     htmlsanitize.Body(str(in.Body)),
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Author == "" {
		p.Author = DefaultAuthor
	}
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	if in.Tags != nil {
		p.Tags = cleanTags(*in.Tags)
	}
	if err := check(p); err != nil {
		return nil, err
	}

	p.Slug = slugFor(p.Title)
	if in.Slug != nil && normalize.Slug(*in.Slug) != "" {
		p.Slug = normalize.Slug(*in.Slug)
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, storeErr(err, "Failed to save post")
	}
	s.logger.Info("post created", zap.String("post_id", created.ID.Hex()), zap.String("slug", created.Slug))
	return created, nil
}

// Update changes the supplied fields. A new title re-derives the slug
// unless a slug is supplied as well.
func (s *Service) Update(ctx context.Context, idHex string, in Input) (*models.Post, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, apperr.NewNotFound("Post not found")
	}
	cur, err := s.store.Get(ctx, id, false)
	if err != nil {
		return nil, storeErr(err, "Post not found")
	}

	var upd poststore.Update
	merged := *cur
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		upd.Title, merged.Title = &t, t
		slug := slugFor(t)
		upd.Slug = &slug
	}
	if in.Slug != nil {
		if slug := normalize.Slug(*in.Slug); slug != "" {
			upd.Slug = &slug
		}
	}
	if upd.Slug != nil && *upd.Slug == cur.Slug {
		upd.Slug = nil
	}
	if in.Duration != nil {
		v := strings.TrimSpace(*in.Duration)
		upd.Duration, merged.Duration = &v, v
	}
	if in.Category != nil {
		v := strings.TrimSpace(*in.Category)
		upd.Category, merged.Category = &v, v
	}
	if in.Author != nil {
		v := normalize.Name(*in.Author)
		if v == "" {
			v = DefaultAuthor
		}
		upd.Author, merged.Author = &v, v
	}
	if in.Status != nil {
		v := strings.TrimSpace(*in.Status)
		upd.Status, merged.Status = &v, v
	}
	if in.Body != nil {
		v := htmlsanitize.Body(*in.Body)
		upd.Body = &v
	}
	if in.Tags != nil {
		tags := cleanTags(*in.Tags)
		upd.Tags = &tags
	}
	if err := check(merged); err != nil {
		return nil, err
	}

	p, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, storeErr(err, "Failed to update post")
	}
	return p, nil
}

// Delete removes a post and its featured image.
func (s *Service) Delete(ctx context.Context, idHex string) error {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return apperr.NewNotFound("Post not found")
	}
	p, err := s.store.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "Failed to delete post")
	}
	if p.FeaturedImage != "" {
		s.assets.Remove(context.WithoutCancel(ctx), p.FeaturedImage)
	}
	s.logger.Info("post deleted", zap.String("post_id", idHex))
	return nil
}

// AttachImage stores an uploaded featured image for the post. The old image
// is removed once the post points at the new one.
func (s *Service) AttachImage(ctx context.Context, idHex string, file io.Reader) (string, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return "", apperr.NewNotFound("Post not found")
	}
	saved, err := s.assets.Save(ctx, ImageDomain, file)
	if err != nil {
		return "", uploadErr(err)
	}
	prev, err := s.store.SetFeaturedImage(ctx, id, saved.URL)
	if err != nil {
		s.assets.Remove(context.WithoutCancel(ctx), saved.URL)
		return "", storeErr(err, "Image upload failed")
	}
	if prev != "" && prev != saved.URL {
		s.assets.Remove(context.WithoutCancel(ctx), prev)
	}
	return saved.URL, nil
}

// GenerateSlugs gives every post without a slug one derived from its title
// and returns how many were updated.
func (s *Service) GenerateSlugs(ctx context.Context) (int, error) {
	list, err := s.store.WithoutSlug(ctx)
	if err != nil {
		return 0, apperr.NewInternal("Failed to generate slugs", err)
	}
	n := 0
	for _, p := range list {
		slug := slugFor(p.Title)
		if _, err := s.store.Update(ctx, p.ID, poststore.Update{Slug: &slug}); err != nil {
			return n, apperr.NewInternal("Failed to generate slugs", err)
		}
		n++
	}
	if n > 0 {
		s.logger.Info("slugs generated", zap.Int("count", n))
	}
	return n, nil
}

func check(p models.Post) error {
	if res := inputval.Validate(postCheck{
		Title:    p.Title,
		Category: p.Category,
		Duration: p.Duration,
		Author:   p.Author,
		Status:   p.Status,
	}); res.HasErrors() {
		return apperr.NewValidation(res.First())
	}
	return nil
}

// slugFor derives a slug from title, falling back to "post" for titles
// with nothing transliterable.
func slugFor(title string) string {
	if s := normalize.Slug(title); s != "" {
		return s
	}
	return "post"
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func storeErr(err error, msg string) error {
	switch {
	case errors.Is(err, poststore.ErrNotFound):
		return apperr.NewNotFound(msg)
	case errors.Is(err, poststore.ErrSlugExhausted):
		return apperr.Wrap(apperr.Conflict, "Could not allocate a unique slug", err)
	default:
		return apperr.NewInternal(msg, err)
	}
}

func uploadErr(err error) error {
	switch {
	case errors.Is(err, assets.ErrTooLarge):
		return apperr.Wrap(apperr.PayloadTooLarge, "File too large", err)
	case errors.Is(err, assets.ErrEmpty):
		return apperr.Wrap(apperr.Validation, "No image uploaded", err)
	case errors.Is(err, assets.ErrUnsupportedType):
		return apperr.Wrap(apperr.Validation, assets.ErrUnsupportedType.Error(), err)
	default:
		return apperr.NewInternal("Image upload failed", err)
	}
}
