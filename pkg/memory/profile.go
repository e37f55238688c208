package memory

import (
	"encoding/json"
	"time"
)

// DefaultPreferences returns the preferences of a new profile.
func DefaultPreferences() map[string]any {
	return map[string]any{
		"dietary_restrictions": []any{},
		"favorite_cuisines":    []any{},
		"disliked_ingredients": []any{},
		"cooking_skill_level":  "intermediate",
	}
}

func newProfile() *Profile {
	return &Profile{
		Preferences:  DefaultPreferences(),
		Achievements: []Achievement{},
	}
}

type wasteContent struct {
	WasteReduced float64 `json:"waste_reduced"`
	MoneySaved   float64 `json:"money_saved"`
}

type achievementContent struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Challenge   json.RawMessage `json:"challenge"`
}

// apply folds one new entry into the profile. Only positive amounts are
// added so the counters stay monotonic.
func (p *Profile) apply(e Entry) error {
	switch e.Kind {
	case KindUserPreference:
		var prefs map[string]any
		if err := e.Decode(&prefs); err != nil {
			return err
		}
		for k, v := range prefs {
			p.Preferences[k] = v
		}

	case KindRecipeHistory:
		p.Stats.RecipesCooked++

	case KindWasteTracking:
		var w wasteContent
		if err := e.Decode(&w); err != nil {
			return err
		}
		if w.WasteReduced > 0 {
			p.Stats.WasteReducedKg += w.WasteReduced
		}
		if w.MoneySaved > 0 {
			p.Stats.MoneySaved += w.MoneySaved
		}

	case KindAchievement:
		var a achievementContent
		if err := e.Decode(&a); err != nil {
			return err
		}
		earned := Achievement{
			Name:        a.Name,
			Description: a.Description,
			EarnedAt:    e.Timestamp,
		}
		if hasValue(a.Challenge) {
			earned.Challenge = challengeName(a.Challenge)
			p.Stats.ChallengesCompleted++
		}
		p.Achievements = append(p.Achievements, earned)

	case KindDocumentHistory:
		p.Stats.DocumentsAnalyzed++

	case KindInsightHistory:
		p.Stats.InsightsGenerated++

	case KindHealthMetrics:
		var h MetricsRecord
		if err := e.Decode(&h); err != nil {
			return err
		}
		for _, r := range h.Metrics {
			if r.Name != "" && r.Value != "" {
				p.Stats.MetricsRecorded++
			}
		}
	}
	return nil
}

func hasValue(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func challengeName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (p *Profile) clone() *Profile {
	return &Profile{
		Preferences:  cloneMap(p.Preferences),
		Stats:        p.Stats,
		Achievements: append([]Achievement{}, p.Achievements...),
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// withinDays reports whether t falls inside the last days days before now.
func withinDays(t, now time.Time, days int) bool {
	return !t.Before(now.Add(-time.Duration(days) * 24 * time.Hour))
}
