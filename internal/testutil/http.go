package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUser returns an admin record suitable for injecting into a request.
func AdminUser() *models.Admin {
	now := time.Now().UTC()
	return &models.Admin{
		ID:        primitive.NewObjectID(),
		Email:     "admin@test.com",
		EmailCI:   "admin@test.com",
		Name:      "Test Admin",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithAdmin adds an admin to the request context for testing authenticated
// handlers. This bypasses token verification and injects the admin directly.
func WithAdmin(r *http.Request, a *models.Admin) *http.Request {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.Hex(),
			ID:        primitive.NewObjectID().Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role:  models.RoleAdmin,
		Email: a.Email,
	}
	return auth.WithAdmin(r, a, claims)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
// A string or []byte is sent as-is, so tests can post malformed bodies.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader
	switch t := v.(type) {
	case nil:
	case string:
		body = strings.NewReader(t)
	case []byte:
		body = bytes.NewReader(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			panic(err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewMultipartRequest builds a multipart/form-data request with one file
// part under fileField plus any plain form fields.
func NewMultipartRequest(method, target, fileField, filename string, data []byte, fields map[string]string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			panic(err)
		}
		_, _ = fw.Write(data)
	}
	_ = mw.Close()

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface{ Fatalf(string, ...any) }, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
}
