package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/system/apperr"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "200 OK with data",
			status:     http.StatusOK,
			data:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"hello"}`,
		},
		{
			name:       "201 Created with data",
			status:     http.StatusCreated,
			data:       map[string]int{"id": 123},
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":123}`,
		},
		{
			name:       "nil data",
			status:     http.StatusOK,
			data:       nil,
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.status, tt.data)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			body := strings.TrimSpace(rec.Body.String())
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expose     bool
		wantStatus int
		wantCode   apperr.Kind
		wantDetail string
	}{
		{
			name:       "not found",
			err:        apperr.NewNotFound("section not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   apperr.NotFound,
		},
		{
			name:       "conflict",
			err:        apperr.NewConflict("section already exists"),
			wantStatus: http.StatusConflict,
			wantCode:   apperr.Conflict,
		},
		{
			name:       "internal with detail exposed",
			err:        apperr.NewInternal("database error", errors.New("socket closed")),
			expose:     true,
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperr.Internal,
			wantDetail: "socket closed",
		},
		{
			name:       "internal with detail hidden",
			err:        apperr.NewInternal("database error", errors.New("socket closed")),
			expose:     false,
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperr.Internal,
		},
		{
			name:       "unclassified error",
			err:        errors.New("raw"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperr.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err, tt.expose)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var got map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("json unmarshal error: %v", err)
			}
			if got["code"] != string(tt.wantCode) {
				t.Errorf("code = %q, want %q", got["code"], tt.wantCode)
			}
			if got["error"] == "" {
				t.Error("error message should not be empty")
			}
			if got["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got["detail"], tt.wantDetail)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		limit    int64
		wantKind apperr.Kind
	}{
		{name: "valid JSON", body: `{"name":"test","value":123}`},
		{name: "invalid JSON", body: `{invalid}`, wantKind: apperr.Validation},
		{name: "empty body", body: "", wantKind: apperr.Validation},
		{name: "over limit", body: `{"name":"` + strings.Repeat("x", 64) + `"}`, limit: 16, wantKind: apperr.PayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, tt.limit)
			}

			var got map[string]any
			err := Decode(req, &got)

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				return
			}
			if !apperr.Is(err, tt.wantKind) {
				t.Errorf("Decode() error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, "Logged out")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json unmarshal error: %v", err)
	}
	if got["message"] != "Logged out" {
		t.Errorf("message = %q, want 'Logged out'", got["message"])
	}
}
