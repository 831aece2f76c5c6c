// Package content serves the editable page sections of every content domain
// (home, about, team, ...) through one generic handler set.
//
// Each domain is a value of the "page" key in the page_sections collection,
// so adding a domain is a configuration change.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/assets"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultUploadField is the content key an upload lands in when the client
// does not name one.
const DefaultUploadField = "image"

// Service implements the content operations on top of the page_sections
// store and the asset manager.
type Service struct {
	store           *contentstore.Store
	assets          *assets.Manager
	maxContentBytes int
	logger          *zap.Logger
}

// NewService creates a content service. maxContentBytes bounds the
// serialized size of a section's content; zero or less disables the check.
func NewService(store *contentstore.Store, am *assets.Manager, maxContentBytes int, logger *zap.Logger) *Service {
	return &Service{
		store:           store,
		assets:          am,
		maxContentBytes: maxContentBytes,
		logger:          logger,
	}
}

// ListAll returns the content of every section of page keyed by section id.
// A page with no sections yields an empty map.
func (s *Service) ListAll(ctx context.Context, page string) (map[string]any, error) {
	secs, err := s.store.List(ctx, page)
	if err != nil {
		return nil, apperr.NewInternal("Error fetching content", err)
	}
	out := make(map[string]any, len(secs))
	for _, sec := range secs {
		out[sec.Section] = sec.Content
	}
	return out, nil
}

// Get returns one section.
func (s *Service) Get(ctx context.Context, page, section string) (*models.Section, error) {
	if !inputval.IsValidSectionID(section) {
		return nil, errSectionNotFound
	}
	sec, err := s.store.Get(ctx, page, section)
	if err != nil {
		return nil, storeErr(err, "Error fetching section")
	}
	return sec, nil
}

// Create adds a new section and fails with Conflict if it already exists.
func (s *Service) Create(ctx context.Context, page, section string, content any) (*models.Section, error) {
	if err := checkSection(section); err != nil {
		return nil, err
	}
	if err := s.checkSize(content); err != nil {
		return nil, err
	}
	sec, err := s.store.Create(ctx, page, section, content)
	if err != nil {
		return nil, storeErr(err, "Error creating section")
	}
	return sec, nil
}

// ReplaceContent stores content as the whole value of the section, creating
// it when absent. created reports which of the two happened. Asset files
// the old content referenced and the new content no longer does are
// removed.
func (s *Service) ReplaceContent(ctx context.Context, page, section string, content any) (sec *models.Section, created bool, err error) {
	if err := checkSection(section); err != nil {
		return nil, false, err
	}
	if err := s.checkSize(content); err != nil {
		return nil, false, err
	}
	cur, prev, err := s.store.Replace(ctx, page, section, content)
	if err != nil {
		return nil, false, storeErr(err, "Error updating section")
	}
	if prev != nil {
		s.removeOrphans(ctx, prev.Content, cur.Content)
	}
	return cur, prev == nil, nil
}

// MergeContentFields sets each dotted field path in fields without touching
// sibling fields, creating the section when absent. An asset path that a
// merged field overwrote is removed.
func (s *Service) MergeContentFields(ctx context.Context, page, section string, fields map[string]any) (*models.Section, error) {
	if err := checkSection(section); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperr.NewValidation("fields must name at least one field")
	}
	for k := range fields {
		if !validFieldPath(k) {
			return nil, apperr.NewValidation("invalid field path: " + k)
		}
	}
	if err := s.checkMergedSize(ctx, page, section, fields); err != nil {
		return nil, err
	}

	cur, prev, err := s.store.MergeFields(ctx, page, section, fields)
	if err != nil {
		return nil, storeErr(err, "Error updating section")
	}
	if prev != nil {
		s.removeOrphans(ctx, prev.Content, cur.Content)
	}
	return cur, nil
}

// Delete removes a section and every asset file its content referenced.
func (s *Service) Delete(ctx context.Context, page, section string) (*models.Section, error) {
	if !inputval.IsValidSectionID(section) {
		return nil, errSectionNotFound
	}
	sec, err := s.store.Delete(ctx, page, section)
	if err != nil {
		return nil, storeErr(err, "Error deleting section")
	}
	s.assets.RemoveAll(context.WithoutCancel(ctx), assets.Referenced(sec.Content))
	return sec, nil
}

// AttachResult reports the outcome of AttachAsset.
type AttachResult struct {
	URL     string
	Section *models.Section
}

// AttachAsset stores an uploaded image and points content.<field> at it.
//
// The file is written first and the document updated second. If the update
// fails the new file is removed so no orphan is left behind; once the update
// succeeds the file the field used to point at is removed best-effort.
func (s *Service) AttachAsset(ctx context.Context, page, section, field string, file io.Reader) (*AttachResult, error) {
	if err := checkSection(section); err != nil {
		return nil, err
	}
	if field == "" {
		field = DefaultUploadField
	}
	if !assets.IsAssetField(field) {
		return nil, apperr.NewValidation("field is not an image field: " + field)
	}

	saved, err := s.assets.Save(ctx, page, file)
	if err != nil {
		return nil, uploadErr(err)
	}

	cur, prev, err := s.store.MergeFields(ctx, page, section, map[string]any{field: saved.URL})
	if err != nil {
		s.assets.Remove(context.WithoutCancel(ctx), saved.URL)
		return nil, storeErr(err, "Image upload failed")
	}

	if prev != nil {
		if old := assets.ValueAt(prev.Content, field); old != "" && old != saved.URL {
			s.assets.Remove(context.WithoutCancel(ctx), old)
		}
	}
	s.logger.Info("asset attached",
		zap.String("page", page),
		zap.String("section", section),
		zap.String("field", field),
		zap.String("path", saved.URL))

	return &AttachResult{URL: saved.URL, Section: cur}, nil
}

// removeOrphans deletes asset files referenced by before but not by after.
func (s *Service) removeOrphans(ctx context.Context, before, after any) {
	keep := map[string]bool{}
	for _, p := range assets.Referenced(after) {
		keep[p] = true
	}
	var gone []string
	for _, p := range assets.Referenced(before) {
		if !keep[p] {
			gone = append(gone, p)
		}
	}
	s.assets.RemoveAll(context.WithoutCancel(ctx), gone)
}

func (s *Service) checkSize(content any) error {
	if s.maxContentBytes <= 0 {
		return nil
	}
	n, err := encodedSize(content)
	if err != nil {
		return apperr.Wrap(apperr.Validation, "content is not valid JSON", err)
	}
	if n > s.maxContentBytes {
		return apperr.NewPayloadTooLarge("content exceeds the size limit")
	}
	return nil
}

// checkMergedSize bounds the merged document by the size of the stored
// content plus the incoming fields. Overwritten values are counted twice,
// so the bound errs toward rejecting.
func (s *Service) checkMergedSize(ctx context.Context, page, section string, fields map[string]any) error {
	if s.maxContentBytes <= 0 {
		return nil
	}
	add, err := encodedSize(fields)
	if err != nil {
		return apperr.Wrap(apperr.Validation, "fields are not valid JSON", err)
	}
	if add > s.maxContentBytes {
		return apperr.NewPayloadTooLarge("content exceeds the size limit")
	}
	existing, err := s.store.Get(ctx, page, section)
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		return nil
	case err != nil:
		return apperr.NewInternal("Error updating section", err)
	}
	have, err := encodedSize(existing.Content)
	if err != nil {
		return apperr.NewInternal("Error updating section", err)
	}
	if have+add > s.maxContentBytes {
		return apperr.NewPayloadTooLarge("content exceeds the size limit")
	}
	return nil
}

func encodedSize(v any) (int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// errSectionNotFound answers reads and deletes of ids no section can have.
var errSectionNotFound = apperr.NewNotFound("Section not found")

func checkSection(section string) error {
	if !inputval.IsValidSectionID(section) {
		return apperr.NewValidation("invalid section id")
	}
	return nil
}

// validFieldPath accepts dotted paths of non-empty segments without '$'.
func validFieldPath(p string) bool {
	if p == "" || len(p) > 200 || strings.Contains(p, "$") {
		return false
	}
	for _, part := range strings.Split(p, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

func storeErr(err error, msg string) error {
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		return errSectionNotFound
	case errors.Is(err, contentstore.ErrDuplicate):
		return apperr.Wrap(apperr.Conflict, "Section already exists", err)
	case errors.Is(err, contentstore.ErrNotObject):
		return apperr.Wrap(apperr.Validation, "Section content is not an object", err)
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
