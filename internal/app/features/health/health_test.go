package health

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func down(name string) Check {
	return Check{Name: name, Ping: func(context.Context) error { return errors.New("connection refused") }}
}

func TestHealth_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(zap.NewNop(), MongoCheck(db.Client()))

	rec := testutil.NewRecorder()
	h.Health(rec, testutil.NewRequest(http.MethodGet, "/health"))
	rec.AssertStatus(t, http.StatusOK)

	var resp Response
	rec.DecodeJSON(t, &resp)
	if resp.Status != "ok" || resp.Services["mongodb"] != "ok" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealth_Degraded(t *testing.T) {
	ok := Check{Name: "mongodb", Ping: func(context.Context) error { return nil }}
	h := NewHandler(zap.NewNop(), ok, down("redis"))

	rec := testutil.NewRecorder()
	h.Health(rec, testutil.NewRequest(http.MethodGet, "/health"))
	rec.AssertStatus(t, http.StatusServiceUnavailable)

	var resp Response
	rec.DecodeJSON(t, &resp)
	if resp.Status != "degraded" || resp.Services["redis"] != "unavailable" || resp.Services["mongodb"] != "ok" {
		t.Errorf("response = %+v", resp)
	}

	rec = testutil.NewRecorder()
	h.Ready(rec, testutil.NewRequest(http.MethodGet, "/ready"))
	rec.AssertStatus(t, http.StatusServiceUnavailable)
}

func TestHealth_Routes(t *testing.T) {
	h := NewHandler(zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/health", Routes(h))
	MountRootEndpoints(r, h)

	tests := []struct {
		path string
		want string
	}{
		{"/health", `"ok"`},
		{"/health/ready", `"ready"`},
		{"/health/live", `"alive"`},
		{"/ready", `"ready"`},
		{"/live", `"alive"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, tt.path))
			rec.AssertStatus(t, http.StatusOK)
			rec.AssertContains(t, tt.want)
		})
	}
}
