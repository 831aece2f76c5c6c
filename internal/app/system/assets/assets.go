// Package assets stores uploaded images and tracks which stored files a
// content document references, so replacing or deleting a document can
// clean up the files it owned.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmpty           = errors.New("uploaded file is empty")
	ErrTooLarge        = errors.New("uploaded file exceeds the size limit")
	ErrUnsupportedType = errors.New("invalid file type: only JPEG, PNG, GIF and WEBP are allowed")
)

// allowedTypes are the sniffed MIME types accepted for upload.
var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Config controls where assets are addressed and how large they may be.
type Config struct {
	// PublicPrefix is prepended to storage keys to form the path stored in
	// documents, e.g. "/uploads" or "https://cdn.example.com/uploads".
	PublicPrefix string
	// MaxBytes bounds a single upload.
	MaxBytes int64
}

// Manager writes and removes asset files in a waffle storage backend.
type Manager struct {
	store    storage.Store
	prefix   string
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Manager over store.
func New(store storage.Store, cfg Config, logger *zap.Logger) *Manager {
	prefix := strings.TrimRight(cfg.PublicPrefix, "/")
	if prefix == "" {
		prefix = "/uploads"
	}
	return &Manager{
		store:    store,
		prefix:   prefix,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

// MaxBytes returns the per-file upload ceiling.
func (m *Manager) MaxBytes() int64 { return m.maxBytes }

// Saved describes a stored asset.
type Saved struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Save validates an uploaded image and stores it under domain.
// The content type is sniffed from the bytes; the client's claim is ignored.
func (m *Manager) Save(ctx context.Context, domain string, r io.Reader) (*Saved, error) {
	data, err := m.readLimited(r)
	if err != nil {
		return nil, err
	}
	mt := mimetype.Detect(data)
	if !isAllowed(mt) {
		return nil, ErrUnsupportedType
	}
	return m.put(ctx, domain, data, mt.String(), mt.Extension())
}

// SaveBytes stores already-processed data (e.g. a resized avatar).
func (m *Manager) SaveBytes(ctx context.Context, domain string, data []byte, contentType, ext string) (*Saved, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return m.put(ctx, domain, data, contentType, ext)
}

func (m *Manager) readLimited(r io.Reader) ([]byte, error) {
	limit := m.maxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

func isAllowed(mt *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// put writes data under "<domain>/<unixmillis>-<id><ext>".
func (m *Manager) put(ctx context.Context, domain string, data []byte, contentType, ext string) (*Saved, error) {
	key := fmt.Sprintf("%s/%d-%s%s", domain, m.now().UnixMilli(), uuid.New().String()[:8], ext)
	opts := &storage.PutOptions{ContentType: contentType}
	if err := m.store.Put(ctx, key, bytes.NewReader(data), opts); err != nil {
		return nil, fmt.Errorf("store asset: %w", err)
	}
	return &Saved{
		Key:         key,
		URL:         m.URLFor(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// URLFor returns the public path stored in documents for key.
func (m *Manager) URLFor(key string) string {
	return m.prefix + "/" + key
}

// KeyFor maps a public path back to its storage key. It reports false for
// paths outside this manager's prefix or paths that try to escape it.
func (m *Manager) KeyFor(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, m.prefix+"/") {
		return "", false
	}
	key := strings.TrimPrefix(publicPath, m.prefix+"/")
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	key = path.Clean(key)
	if strings.HasPrefix(key, "/") || key == "." {
		return "", false
	}
	return key, true
}

// Remove deletes the file behind publicPath. Paths not owned by this
// manager (external URLs, seeded defaults) are ignored. Failures are
// logged and swallowed.
func (m *Manager) Remove(ctx context.Context, publicPath string) {
	key, ok := m.KeyFor(publicPath)
	if !ok {
		return
	}
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Warn("failed to delete asset file",
			zap.String("path", publicPath),
			zap.Error(err))
		return
	}
	m.logger.Debug("asset file deleted", zap.String("path", publicPath))
}

// RemoveAll calls Remove for every path.
func (m *Manager) RemoveAll(ctx context.Context, publicPaths []string) {
	for _, p := range publicPaths {
		m.Remove(ctx, p)
	}
}
