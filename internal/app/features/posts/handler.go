package posts

import (
	"context"
	"errors"
	"net/http"

	poststore "github.com/dalemusser/stratasite/internal/app/store/posts"
	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves /posts.
type Handler struct {
	svc            *Service
	exposeDetail   bool
	maxBodyBytes   int64
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates a posts Handler.
func NewHandler(svc *Service, exposeDetail bool, maxBodyBytes, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{
		svc:            svc,
		exposeDetail:   exposeDetail,
		maxBodyBytes:   maxBodyBytes,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// list handles GET /posts?page=&limit=&category=&tag=.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := storeutil.ParsePage(q.Get("page"), q.Get("limit"))
	f := poststore.Filter{
		Category: normalize.QueryParam(q.Get("category")),
		Tag:      normalize.QueryParam(q.Get("tag")),
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	res, err := h.svc.ListPublished(ctx, f, page, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, res)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	res, err := h.svc.ListAll(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, res)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.svc.GetPublished(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, p)
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.svc.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, p)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	out, err := h.svc.Categories(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, out)
}

func (h *Handler) tags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	out, err := h.svc.Tags(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, out)
}

// create handles POST /posts (auth).
//
// Request body: {"title", "slug"?, "duration"?, "category"?, "tags"?, "body"?, "author"?, "status"?}
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.svc.Create(ctx, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Created(w, p)
}

// update handles PUT and PATCH /posts/{id} (auth). Omitted fields are kept.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.svc.Update(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "Post deleted successfully")
}

// uploadImage handles POST /posts/{id}/image (auth) with multipart file
// "featuredImage".
func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, apperr.Wrap(apperr.PayloadTooLarge, "File too large", err))
			return
		}
		h.fail(w, r, apperr.Wrap(apperr.Validation, "invalid multipart form", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("featuredImage")
	if err != nil {
		h.fail(w, r, apperr.Wrap(apperr.Validation, "No image uploaded", err))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	url, err := h.svc.AttachImage(ctx, chi.URLParam(r, "id"), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]string{
		"message":       "Image uploaded successfully",
		"featuredImage": url,
	})
}

func (h *Handler) generateSlugs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	n, err := h.svc.GenerateSlugs(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"message": "Slugs generated successfully", "updated": n})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	return jsonutil.Decode(r, v)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.As(err).Kind == apperr.Internal {
		h.logger.Error("posts request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	jsonutil.WriteError(w, err, h.exposeDetail)
}
