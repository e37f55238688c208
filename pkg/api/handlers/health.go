package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pantryplay/pantryplay/pkg/api/response"
	"github.com/pantryplay/pantryplay/pkg/memory"
	"github.com/pantryplay/pantryplay/pkg/version"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource provides the counters shown on /status.
type StatsSource interface {
	Stats() memory.Stats
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	service string
	store   Pinger
	stats   StatsSource
	started time.Time
}

// NewHealthHandler creates a health handler. store backs the readiness
// check; stats may be nil.
func NewHealthHandler(service string, store Pinger, stats StatsSource) *HealthHandler {
	return &HealthHandler{
		service: service,
		store:   store,
		stats:   stats,
		started: time.Now(),
	}
}

// Health handles /health (liveness).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.service,
	})
}

// Ready handles /ready. It fails while the memory store is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready": false,
			"error": err.Error(),
		})
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// StatusResponse is the body of /status.
type StatusResponse struct {
	Service string        `json:"service"`
	Version version.Info  `json:"version"`
	Uptime  string        `json:"uptime"`
	Storage string        `json:"storage"`
	Stats   *memory.Stats `json:"stats,omitempty"`
}

// Status handles /status.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Service: h.service,
		Version: version.Get(),
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Storage: "ok",
	}
	if err := h.ping(r.Context()); err != nil {
		resp.Storage = err.Error()
	}
	if h.stats != nil {
		stats := h.stats.Stats()
		resp.Stats = &stats
	}
	response.JSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return h.store.Ping(ctx)
}
