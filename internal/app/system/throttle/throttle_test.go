package throttle

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(60, 2, zap.NewNop())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Error("third request should be throttled")
	}
	if !l.Allow("2.2.2.2") {
		t.Error("other IPs have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("1.1.1.1") {
		t.Error("token should refill after one second at 60/min")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(0, 0, zap.NewNop())
	for i := 0; i < 100; i++ {
		if !l.Allow("1.1.1.1") {
			t.Fatal("disabled limiter should always allow")
		}
	}
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	l := New(60, 1, zap.NewNop())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("1.1.1.1")
	now = now.Add(2 * idleTTL)
	l.Allow("2.2.2.2")

	if _, ok := l.buckets["1.1.1.1"]; ok {
		t.Error("idle bucket should have been swept")
	}
}

func TestMiddleware(t *testing.T) {
	l := New(60, 1, zap.NewNop())
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, rec.Code, want)
		}
	}
}

func TestMiddleware_ForwardedForDoesNotResetBucket(t *testing.T) {
	l := New(60, 1, zap.NewNop())
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, xff := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		want := http.StatusTooManyRequests
		if i == 0 {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Errorf("request %d (X-Forwarded-For %s): status = %d, want %d", i, xff, rec.Code, want)
		}
	}
}
