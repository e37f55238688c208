// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/api/handlers"
	"github.com/pantryplay/pantryplay/pkg/api/middleware"
	"github.com/pantryplay/pantryplay/pkg/logger"
)

// Handlers holds all HTTP handlers. Nil handlers leave their routes
// unregistered.
type Handlers struct {
	// Agent handles request processing endpoints
	Agent *handlers.AgentHandler

	// Memory handles profile and history endpoints
	Memory *handlers.MemoryHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// WebSocket streams agent events
	WebSocket *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if h.Metrics != nil {
		r.Use(middleware.Metrics(h.Metrics))
	}
	r.Use(middleware.CORS(&cfg.Server.CORS))

	// Websocket connections outlive the request timeout.
	if h.WebSocket != nil && cfg.Server.WebSocket.Enabled {
		r.Handle("/ws/events", h.WebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.HTTP.RequestTimeout))
		RegisterRoutes(r, h)
	})

	return r
}

// RegisterRoutes registers the API and health routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		if h.Agent != nil {
			r.Route("/agent", func(r chi.Router) {
				r.Post("/process", h.Agent.Process)
				r.Post("/documents", h.Agent.ProcessDocument)
			})
		}

		if h.Memory != nil {
			r.Route("/memory", func(r chi.Router) {
				r.Get("/stats", h.Memory.GetStats)
				r.Get("/achievements", h.Memory.GetAchievements)
				r.Post("/achievements", h.Memory.AwardAchievement)
				r.Get("/preferences", h.Memory.GetPreferences)
				r.Post("/preferences", h.Memory.UpdatePreferences)
				r.Get("/patterns", h.Memory.GetPatterns)
				r.Get("/entries/{kind}", h.Memory.ListEntries)
			})
		}
	})

	if h.Health != nil {
		r.Get("/health", h.Health.Health)
		r.Get("/ready", h.Health.Ready)
		r.Get("/status", h.Health.Status)
	}
}
