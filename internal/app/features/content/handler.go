package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Config holds the request limits a Handler enforces.
type Config struct {
	// ExposeDetail adds the underlying cause to error bodies (non-prod).
	ExposeDetail bool
	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes int64
	// MaxUploadBytes bounds one uploaded file.
	MaxUploadBytes int64
	// MaxFiles bounds the number of multipart parts per upload.
	MaxFiles int
}

// Handler serves one content domain.
type Handler struct {
	page   string
	svc    *Service
	cfg    Config
	logger *zap.Logger
}

// NewHandler creates a handler for the sections of page.
func NewHandler(page string, svc *Service, cfg Config, logger *zap.Logger) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 10
	}
	return &Handler{page: page, svc: svc, cfg: cfg, logger: logger}
}

// Page returns the domain this handler serves.
func (h *Handler) Page() string { return h.page }

// ListHandler handles GET /{domain}.
//
// Response (200 OK): {"<section>": <content>, ...}
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	all, err := h.svc.ListAll(ctx, h.page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, all)
}

// GetHandler handles GET /{domain}/{section}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sec, err := h.svc.Get(ctx, h.page, chi.URLParam(r, "section"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, sec)
}

type createRequest struct {
	Section string          `json:"section"`
	Content json.RawMessage `json:"content"`
}

// CreateHandler handles POST /{domain}.
//
// Request body:
//
//	{"section": "heroSection", "content": { ... any JSON ... }}
//
// Response (201 Created): the stored section.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Section == "" {
		h.fail(w, r, apperr.NewValidation("section is required"))
		return
	}
	content, err := decodeContent(req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sec, err := h.svc.Create(ctx, h.page, req.Section, content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Created(w, sec)
}

type replaceRequest struct {
	Content json.RawMessage `json:"content"`
}

// ReplaceHandler handles PUT /{domain}/{section}.
//
// Request body: {"content": { ... any JSON ... }}
//
// The whole content value is replaced. Response is 201 Created when the
// section did not exist and 200 OK otherwise.
func (h *Handler) ReplaceHandler(w http.ResponseWriter, r *http.Request) {
	var req replaceRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	content, err := decodeContent(req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sec, created, err := h.svc.ReplaceContent(ctx, h.page, chi.URLParam(r, "section"), content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if created {
		jsonutil.Created(w, sec)
		return
	}
	jsonutil.OK(w, sec)
}

type mergeRequest struct {
	Fields map[string]any `json:"fields"`
}

// MergeHandler handles PATCH /{domain}/{section}.
//
// Request body:
//
//	{"fields": {"imageUrl": "/uploads/home/x.png", "members.1.name": "Ann"}}
//
// Each key is a dotted path under content. Sibling fields are untouched.
func (h *Handler) MergeHandler(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sec, err := h.svc.MergeContentFields(ctx, h.page, chi.URLParam(r, "section"), req.Fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, sec)
}

// DeleteHandler handles DELETE /{domain}/{section}.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	sec, err := h.svc.Delete(ctx, h.page, chi.URLParam(r, "section"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{
		"message": "Section deleted successfully",
		"deleted": sec,
	})
}

// UploadHandler handles POST /{domain}/upload-image/{section}.
//
// Multipart form: "image" (file, required), "field" (optional target path,
// default "image").
//
// Response (200 OK):
//
//	{"message": "Image uploaded successfully", "imageUrl": "/uploads/...", "updated": { ... }}
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	// Room for the file plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, apperr.Wrap(apperr.PayloadTooLarge, "File too large", err))
			return
		}
		h.fail(w, r, apperr.Wrap(apperr.Validation, "invalid multipart form", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if countParts(r) > h.cfg.MaxFiles {
		h.fail(w, r, apperr.NewValidation("too many form parts"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		h.fail(w, r, apperr.Wrap(apperr.Validation, "No image uploaded", err))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	res, err := h.svc.AttachAsset(ctx, h.page, chi.URLParam(r, "section"), r.FormValue("field"), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{
		"message":  "Image uploaded successfully",
		"imageUrl": res.URL,
		"updated":  res.Section,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	return jsonutil.Decode(r, v)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.As(err).Kind == apperr.Internal {
		h.logger.Error("content request failed",
			zap.String("page", h.page),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	jsonutil.WriteError(w, err, h.cfg.ExposeDetail)
}

// decodeContent parses the raw content value. A missing content key is
// rejected; an explicit null is stored as null.
func decodeContent(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, apperr.NewValidation("content is required")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperr.Wrap(apperr.Validation, "malformed content", err)
	}
	return v, nil
}

func countParts(r *http.Request) int {
	n := 0
	for _, vs := range r.MultipartForm.Value {
		n += len(vs)
	}
	for _, fs := range r.MultipartForm.File {
		n += len(fs)
	}
	return n
}
