// Package health exposes liveness and readiness probes for the API.
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check is one dependency probed by readiness.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// MongoCheck probes the primary.
func MongoCheck(client *mongo.Client) Check {
	return Check{Name: "mongodb", Ping: func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}}
}

// RedisCheck probes a Redis client.
func RedisCheck(rdb redis.UniversalClient) Check {
	return Check{Name: "redis", Ping: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

// Handler serves the probe endpoints.
type Handler struct {
	checks []Check
	logger *zap.Logger
}

// NewHandler creates a Handler that probes checks in order.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	return &Handler{checks: checks, logger: logger}
}

// Response is the body of a full health check.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes provides /health (full check), /health/ready and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready and /live on the root router for
// orchestrator probes.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
}

// probe runs every check and reports per-service status.
func (h *Handler) probe(ctx context.Context) (ok bool, services map[string]string) {
	ok = true
	services = make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		cctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		err := c.Ping(cctx)
		cancel()
		if err != nil {
			ok = false
			services[c.Name] = "unavailable"
			h.logger.Warn("health check failed", zap.String("service", c.Name), zap.Error(err))
			continue
		}
		services[c.Name] = "ok"
	}
	return ok, services
}

// Health reports the status of every dependency.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ok, services := h.probe(r.Context())
	if !ok {
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "degraded", Services: services})
		return
	}
	jsonutil.OK(w, Response{Status: "ok", Services: services})
}

// Ready reports whether the service can take traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if ok, _ := h.probe(r.Context()); !ok {
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
		return
	}
	jsonutil.OK(w, Response{Status: "ready"})
}

// Live reports that the process is up.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Response{Status: "alive"})
}
