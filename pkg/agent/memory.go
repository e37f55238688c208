package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/pantryplay/pantryplay/pkg/memory"
	"github.com/pantryplay/pantryplay/pkg/task"
)

// ErrAchievementName is returned when an achievement has no name.
var ErrAchievementName = errors.New("agent: achievement name is required")

// persistKinds maps the task kinds whose results are remembered to their
// memory bucket.
var persistKinds = map[task.Kind]memory.Kind{
	task.KindGenerateRecipe:     memory.KindRecipeHistory,
	task.KindAnalyzePantry:      memory.KindPantrySnapshot,
	task.KindTrackWaste:         memory.KindWasteTracking,
	task.KindCreateShoppingList: memory.KindShoppingHistory,

	task.KindAnalyzeDocument:  memory.KindDocumentHistory,
	task.KindHealthQuery:      memory.KindInsightHistory,
	task.KindAnalyzeTrends:    memory.KindInsightHistory,
	task.KindCheckMedications: memory.KindInsightHistory,
	task.KindGenerateReport:   memory.KindInsightHistory,
}

// persist stores a usable result, and any measurements it carries as
// health metrics. Failures are logged and dropped.
func (a *Agent) persist(ctx context.Context, kind task.Kind, result task.Result) {
	bucket, ok := persistKinds[kind]
	if !ok || !task.Succeeded(result) {
		return
	}
	if _, err := a.memory.Store(ctx, bucket, result); err != nil {
		a.log.ErrorContext(ctx, "failed to remember result", "kind", kind, "bucket", bucket, "error", err)
		return
	}

	reporter, ok := result.(task.MetricReporter)
	if !ok || len(reporter.HealthMetrics()) == 0 {
		return
	}
	record := memory.MetricsRecord{Source: string(kind)}
	for _, m := range reporter.HealthMetrics() {
		record.Metrics = append(record.Metrics, memory.Reading{
			Name:       m.Name,
			Value:      m.Value,
			Unit:       m.Unit,
			Flag:       m.Flag,
			RecordedAt: m.RecordedAt,
		})
	}
	if _, err := a.memory.Store(ctx, memory.KindHealthMetrics, record); err != nil {
		a.log.ErrorContext(ctx, "failed to remember health metrics", "kind", kind, "error", err)
	}
}

type interaction struct {
	BatchID string      `json:"batch_id"`
	Input   string      `json:"input"`
	Summary string      `json:"summary"`
	Tasks   []task.Kind `json:"tasks"`
	Success bool        `json:"success"`
}

func (a *Agent) logInteraction(ctx context.Context, input string, resp *Response) {
	kinds := make([]task.Kind, 0, len(resp.Results))
	for _, kind := range task.Kinds() {
		if _, ok := resp.Results[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	_, err := a.memory.Store(ctx, memory.KindInteraction, interaction{
		BatchID: resp.BatchID,
		Input:   input,
		Summary: resp.Summary,
		Tasks:   kinds,
		Success: resp.Success,
	})
	if err != nil {
		a.log.ErrorContext(ctx, "failed to log interaction", "error", err)
	}
}

// Stats returns the user's counters.
func (a *Agent) Stats() memory.Stats { return a.memory.Stats() }

// Achievements returns the earned achievements.
func (a *Agent) Achievements() []memory.Achievement { return a.memory.Achievements() }

// Preferences returns the stored preferences.
func (a *Agent) Preferences() map[string]any { return a.memory.Preferences() }

// Patterns analyzes recent behavior.
func (a *Agent) Patterns(ctx context.Context) (*memory.Patterns, error) {
	return a.memory.AnalyzePatterns(ctx)
}

// History returns the last limit entries of kind.
func (a *Agent) History(ctx context.Context, kind memory.Kind, limit int) ([]memory.Entry, error) {
	return a.memory.Retrieve(ctx, kind, limit)
}

// UpdatePreferences merges prefs into the stored preferences.
func (a *Agent) UpdatePreferences(ctx context.Context, prefs map[string]any) error {
	if len(prefs) == 0 {
		return nil
	}
	if _, err := a.memory.Store(ctx, memory.KindUserPreference, prefs); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

// Achievement describes a milestone to award.
type Achievement struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Challenge   string `json:"challenge,omitempty" validate:"max=100"`
}

// AwardAchievement records an achievement. Naming a challenge also counts
// it as completed.
func (a *Agent) AwardAchievement(ctx context.Context, ach Achievement) error {
	if ach.Name == "" {
		return ErrAchievementName
	}
	if _, err := a.memory.Store(ctx, memory.KindAchievement, ach); err != nil {
		return fmt.Errorf("award achievement: %w", err)
	}
	return nil
}

// MetricHistory returns the stored health readings of the last days days.
func (a *Agent) MetricHistory(ctx context.Context, days int) ([]memory.Reading, error) {
	return a.memory.MetricHistory(ctx, days)
}

// MetricTrends classifies how each tracked metric moved recently.
func (a *Agent) MetricTrends(ctx context.Context) (map[string]string, error) {
	return a.memory.MetricTrends(ctx)
}

// Ping checks the memory store.
func (a *Agent) Ping(ctx context.Context) error { return a.memory.Ping(ctx) }
