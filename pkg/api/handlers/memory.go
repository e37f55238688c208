package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pantryplay/pantryplay/pkg/agent"
	"github.com/pantryplay/pantryplay/pkg/api/middleware"
	"github.com/pantryplay/pantryplay/pkg/api/response"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/memory"
)

const (
	defaultEntryLimit = 20
	maxEntryLimit     = memory.DefaultCapacity
)

// MemoryHandler exposes the user's profile and history.
type MemoryHandler struct {
	agent     *agent.Agent
	logger    logger.Logger
	validator *validator.Validate
}

// NewMemoryHandler creates a memory handler.
func NewMemoryHandler(a *agent.Agent, log logger.Logger) *MemoryHandler {
	return &MemoryHandler{
		agent:     a,
		logger:    log.With("handler", "memory"),
		validator: newValidator(),
	}
}

// AchievementsResponse lists earned achievements.
type AchievementsResponse struct {
	Achievements []memory.Achievement `json:"achievements"`
	Stats        memory.Stats         `json:"stats"`
}

// EntriesResponse lists the most recent entries of one kind.
type EntriesResponse struct {
	Kind    memory.Kind    `json:"kind"`
	Entries []memory.Entry `json:"entries"`
	Count   int            `json:"count"`
}

// GetStats handles GET /api/v1/memory/stats
func (h *MemoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.agent.Stats())
}

// GetAchievements handles GET /api/v1/memory/achievements
func (h *MemoryHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.achievements())
}

func (h *MemoryHandler) achievements() AchievementsResponse {
	list := h.agent.Achievements()
	if list == nil {
		list = []memory.Achievement{}
	}
	return AchievementsResponse{Achievements: list, Stats: h.agent.Stats()}
}

// AwardAchievement handles POST /api/v1/memory/achievements
func (h *MemoryHandler) AwardAchievement(w http.ResponseWriter, r *http.Request) {
	var req agent.Achievement
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.ErrorWithDetails(w, http.StatusBadRequest, response.ErrCodeValidationFailed,
			"Invalid achievement", validationDetails(err), middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.agent.AwardAchievement(r.Context(), req); err != nil {
		writeError(w, r, h.logger, "failed to award achievement", err)
		return
	}
	response.JSON(w, http.StatusCreated, h.achievements())
}

// GetPreferences handles GET /api/v1/memory/preferences
func (h *MemoryHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.agent.Preferences())
}

// UpdatePreferences handles POST /api/v1/memory/preferences. Keys in the
// body replace the stored ones; other keys are kept.
func (h *MemoryHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs map[string]any
	if !decodeJSON(w, r, &prefs) {
		return
	}
	if len(prefs) == 0 {
		badRequest(w, r, response.ErrCodeValidationFailed, "At least one preference is required")
		return
	}
	if err := h.agent.UpdatePreferences(r.Context(), prefs); err != nil {
		writeError(w, r, h.logger, "failed to update preferences", err)
		return
	}
	response.JSON(w, http.StatusOK, h.agent.Preferences())
}

// GetPatterns handles GET /api/v1/memory/patterns
func (h *MemoryHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.agent.Patterns(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "failed to analyze patterns", err)
		return
	}
	response.JSON(w, http.StatusOK, patterns)
}

// ListEntries handles GET /api/v1/memory/entries/{kind}?limit=
func (h *MemoryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	kind, err := memory.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, h.logger, "invalid memory kind", err)
		return
	}

	limit := defaultEntryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, r, response.ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEntryLimit)
	}

	entries, err := h.agent.History(r.Context(), kind, limit)
	if err != nil {
		writeError(w, r, h.logger, "failed to list entries", err)
		return
	}
	if entries == nil {
		entries = []memory.Entry{}
	}
	response.JSON(w, http.StatusOK, EntriesResponse{Kind: kind, Entries: entries, Count: len(entries)})
}
