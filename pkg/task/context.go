package task

import (
	"fmt"
	"strings"
)

// Well-known context keys.
const (
	CtxIngredients        = "ingredients"
	CtxItems              = "items"
	CtxDietaryPreferences = "dietary_preferences"
	CtxTrackNutrition     = "track_nutrition"
	CtxMissingIngredients = "missing_ingredients"
	CtxMealPlan           = "meal_plan"
	CtxBudget             = "budget"
	CtxMood               = "mood"
	CtxWeather            = "weather"
	CtxLeftovers          = "leftovers"
	CtxRecipe             = "recipe"
	CtxNutritionGoals     = "nutrition_goals"
	CtxUserPreferences    = "user_preferences"
	CtxRecentRecipes      = "recent_recipes"
	CtxPatterns           = "patterns"
	CtxDocumentText       = "document_text"
	CtxDocumentMetadata   = "document_metadata"
	CtxPreferenceSkill    = "cooking_skill_level"
	CtxPreferenceDiet     = "dietary_restrictions"
	CtxPreferenceDislikes = "disliked_ingredients"
	CtxPreferenceCuisines = "favorite_cuisines"

	CtxMedications       = "medications"
	CtxRecentMetrics     = "recent_metrics"
	CtxMetricHistory     = "metric_history"
	CtxMetricTrends      = "metric_trends"
	CtxMetrics           = "metrics"
	CtxTimePeriod        = "time_period"
	CtxHasHistoricalData = "has_historical_data"
)

// Context is the open, caller-supplied bundle the planner reads. Values
// usually come from decoded JSON, so the getters accept the loose shapes
// JSON produces.
type Context map[string]any

// Clone returns a shallow copy.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// String returns the value at key as a trimmed string.
func (c Context) String(key string) string {
	switch v := c[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns the value at key as a list. A single string is split on
// commas.
func (c Context) Strings(key string) []string {
	return toStrings(c[key])
}

// Bool returns the value at key as a bool. Strings "true", "yes" and "1"
// count as true.
func (c Context) Bool(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

// Float returns the value at key as a float64.
func (c Context) Float(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Map returns the value at key as a nested Context.
func (c Context) Map(key string) Context {
	switch v := c[key].(type) {
	case Context:
		return v
	case map[string]any:
		return Context(v)
	}
	return nil
}

func toStrings(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		for _, part := range strings.Split(val, ",") {
			add(part)
		}
	case []string:
		for _, s := range val {
			add(s)
		}
	case []any:
		for _, item := range val {
			switch s := item.(type) {
			case string:
				add(s)
			case map[string]any:
				if name, ok := s["name"].(string); ok {
					add(name)
				}
			default:
				add(fmt.Sprint(s))
			}
		}
	default:
		add(fmt.Sprint(val))
	}
	return out
}
