// Package memory keeps the agent's long-lived state: per-kind interaction
// logs and the user profile derived from them.
package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind selects the bucket an entry is appended to.
type Kind string

const (
	KindUserPreference  Kind = "user_preference"
	KindRecipeHistory   Kind = "recipe_history"
	KindPantrySnapshot  Kind = "pantry_snapshot"
	KindWasteTracking   Kind = "waste_tracking"
	KindAchievement     Kind = "achievement"
	KindShoppingHistory Kind = "shopping_history"
	KindInteraction     Kind = "interaction"

	KindDocumentHistory Kind = "document_history"
	KindHealthMetrics   Kind = "health_metrics"
	KindInsightHistory  Kind = "insight_history"
)

var allKinds = []Kind{
	KindUserPreference,
	KindRecipeHistory,
	KindPantrySnapshot,
	KindWasteTracking,
	KindAchievement,
	KindShoppingHistory,
	KindInteraction,
	KindDocumentHistory,
	KindHealthMetrics,
	KindInsightHistory,
}

// Kinds returns every bucket kind.
func Kinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Entry is one immutable record in a bucket.
type Entry struct {
	// ID is a ULID, so IDs sort in creation order.
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Content   json.RawMessage `json:"content"`
}

// Decode unmarshals the entry content into v.
func (e Entry) Decode(v any) error {
	return json.Unmarshal(e.Content, v)
}

// Stats are the profile counters. They never decrease.
type Stats struct {
	RecipesCooked       int     `json:"recipes_cooked"`
	WasteReducedKg      float64 `json:"waste_reduced_kg"`
	MoneySaved          float64 `json:"money_saved"`
	ChallengesCompleted int     `json:"challenges_completed"`

	DocumentsAnalyzed int `json:"documents_analyzed,omitempty"`
	InsightsGenerated int `json:"insights_generated,omitempty"`
	MetricsRecorded   int `json:"metrics_recorded,omitempty"`
}

// Achievement is a milestone the user earned.
type Achievement struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Challenge   string    `json:"challenge,omitempty"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Profile is the aggregate user state.
type Profile struct {
	Preferences  map[string]any `json:"preferences"`
	Stats        Stats          `json:"stats"`
	Achievements []Achievement  `json:"achievements"`
}

// Trend classifies how waste changed over the tracking window.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendNeedsAttention   Trend = "needs_attention"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// Frequency is a ranked name with its occurrence count.
type Frequency struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Patterns summarizes recent behavior.
type Patterns struct {
	FavoriteIngredients []Frequency `json:"favorite_ingredients"`
	FavoriteCuisines    []Frequency `json:"favorite_cuisines"`
	CookingFrequency    float64     `json:"cooking_frequency"`
	WasteTrend          Trend       `json:"waste_trend"`
}
