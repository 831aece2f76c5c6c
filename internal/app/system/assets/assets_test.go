package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestManager(t *testing.T, maxBytes int64) (*Manager, storage.Store) {
	t.Helper()
	store, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/uploads",
	})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return New(store, Config{PublicPrefix: "/uploads", MaxBytes: maxBytes}, zap.NewNop()), store
}

func exists(t *testing.T, store storage.Store, key string) bool {
	t.Helper()
	rc, err := store.Get(context.Background(), key)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

func TestSave_StoresImage(t *testing.T) {
	m, store := newTestManager(t, 1<<20)
	ctx := context.Background()

	saved, err := m.Save(ctx, "home", bytes.NewReader(pngBytes(t, 8, 8)))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(saved.Key, "home/") || !strings.HasSuffix(saved.Key, ".png") {
		t.Errorf("Key = %q, want home/<...>.png", saved.Key)
	}
	if saved.URL != "/uploads/"+saved.Key {
		t.Errorf("URL = %q", saved.URL)
	}
	if saved.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", saved.ContentType)
	}
	if !exists(t, store, saved.Key) {
		t.Error("stored file not found")
	}
}

func TestSave_Rejections(t *testing.T) {
	m, _ := newTestManager(t, 64)
	ctx := context.Background()

	if _, err := m.Save(ctx, "home", bytes.NewReader(nil)); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty: err = %v, want ErrEmpty", err)
	}
	if _, err := m.Save(ctx, "home", strings.NewReader("just some text")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("text: err = %v, want ErrUnsupportedType", err)
	}
	if _, err := m.Save(ctx, "home", bytes.NewReader(pngBytes(t, 32, 32))); !errors.Is(err, ErrTooLarge) {
		t.Errorf("large: err = %v, want ErrTooLarge", err)
	}
}

func TestKeyFor(t *testing.T) {
	m, _ := newTestManager(t, 1<<20)

	tests := []struct {
		path string
		key  string
		ok   bool
	}{
		{"/uploads/home/1-abc.png", "home/1-abc.png", true},
		{"/uploads/../etc/passwd", "", false},
		{"https://example.com/a.png", "", false},
		{"/uploads/", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		key, ok := m.KeyFor(tt.path)
		if key != tt.key || ok != tt.ok {
			t.Errorf("KeyFor(%q) = (%q, %v), want (%q, %v)", tt.path, key, ok, tt.key, tt.ok)
		}
	}
}

func TestRemove(t *testing.T) {
	m, store := newTestManager(t, 1<<20)
	ctx := context.Background()

	saved, err := m.Save(ctx, "about", bytes.NewReader(pngBytes(t, 4, 4)))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	m.Remove(ctx, saved.URL)
	if exists(t, store, saved.Key) {
		t.Error("file still present after Remove")
	}

	// Missing files and foreign URLs are ignored.
	m.Remove(ctx, saved.URL)
	m.Remove(ctx, "https://cdn.example.com/x.png")
}

func TestReferenced(t *testing.T) {
	content := map[string]any{
		"title":    "Team",
		"imageUrl": "/uploads/team/hero.png",
		"members": []any{
			map[string]any{"name": "A", "image": "/uploads/team/a.png"},
			map[string]any{"name": "B", "image": ""},
			map[string]any{"name": "C", "image": "/uploads/team/a.png"},
		},
		"nested": map[string]any{"logo": "/uploads/team/logo.png"},
		"text":   "/uploads/team/not-an-asset.png",
	}
	got := Referenced(content)
	want := map[string]bool{
		"/uploads/team/hero.png": true,
		"/uploads/team/a.png":    true,
		"/uploads/team/logo.png": true,
	}
	if len(got) != len(want) {
		t.Fatalf("Referenced = %v, want %d paths", got, len(want))
	}
	for _, p := range got {
		if !want[p] {
			t.Errorf("unexpected path %q", p)
		}
	}
	if Referenced("plain") != nil {
		t.Error("Referenced(string) should be nil")
	}
}

func TestIsAssetFieldAndValueAt(t *testing.T) {
	for _, f := range []string{"image", "imageUrl", "members.3.image"} {
		if !IsAssetField(f) {
			t.Errorf("IsAssetField(%q) = false", f)
		}
	}
	for _, f := range []string{"title", "members.x.image", "members.1.name", ""} {
		if IsAssetField(f) {
			t.Errorf("IsAssetField(%q) = true", f)
		}
	}

	content := map[string]any{
		"image":   "/uploads/a.png",
		"members": []any{map[string]any{"image": "/uploads/m0.png"}},
	}
	if v := ValueAt(content, "image"); v != "/uploads/a.png" {
		t.Errorf("ValueAt(image) = %q", v)
	}
	if v := ValueAt(content, "members.0.image"); v != "/uploads/m0.png" {
		t.Errorf("ValueAt(members.0.image) = %q", v)
	}
	if v := ValueAt(content, "members.5.image"); v != "" {
		t.Errorf("ValueAt(out of range) = %q", v)
	}
}

func TestNormalizeAvatar(t *testing.T) {
	m, _ := newTestManager(t, 1<<20)

	out, err := m.NormalizeAvatar(bytes.NewReader(pngBytes(t, 300, 120)))
	if err != nil {
		t.Fatalf("NormalizeAvatar: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if b := img.Bounds(); b.Dx() != AvatarSize || b.Dy() != AvatarSize {
		t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), AvatarSize, AvatarSize)
	}

	if _, err := m.NormalizeAvatar(strings.NewReader("nope")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType", err)
	}
}
