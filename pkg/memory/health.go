package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	trendWindowDays = 90
	trendReadings   = 5
)

// Directions reported by MetricTrends.
const (
	DirectionIncreasing = "increasing"
	DirectionDecreasing = "decreasing"
	DirectionStable     = "stable"
)

// Reading is one stored health measurement.
type Reading struct {
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	Flag       string    `json:"flag,omitempty"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// MetricsRecord is the content of a health_metrics entry.
type MetricsRecord struct {
	Source  string    `json:"source,omitempty"`
	Metrics []Reading `json:"metrics"`
}

// MetricHistory returns every stored reading from the last days days,
// oldest first. days <= 0 returns the whole history. Readings without a
// timestamp take the time of their entry.
func (m *Memory) MetricHistory(ctx context.Context, days int) ([]Reading, error) {
	entries, err := m.Retrieve(ctx, KindHealthMetrics, 0)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	readings := []Reading{}
	for _, e := range entries {
		if days > 0 && !withinDays(e.Timestamp, now, days) {
			continue
		}
		var rec MetricsRecord
		if err := e.Decode(&rec); err != nil {
			m.log.DebugContext(ctx, "skipping undecodable metrics entry", "id", e.ID, "error", err)
			continue
		}
		for _, r := range rec.Metrics {
			if r.Name == "" || r.Value == "" {
				continue
			}
			r.Name = strings.ToLower(strings.TrimSpace(r.Name))
			if r.RecordedAt.IsZero() {
				r.RecordedAt = e.Timestamp
			}
			if r.Source == "" {
				r.Source = rec.Source
			}
			readings = append(readings, r)
		}
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].RecordedAt.Before(readings[j].RecordedAt)
	})
	return readings, nil
}

// LatestMetrics returns the newest reading of each metric from the last days
// days, sorted by name.
func (m *Memory) LatestMetrics(ctx context.Context, days int) ([]Reading, error) {
	history, err := m.MetricHistory(ctx, days)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]Reading)
	for _, r := range history {
		latest[r.Name] = r
	}
	out := make([]Reading, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MetricTrends classifies each metric with at least two numeric readings in
// the last 90 days by comparing the first and last of its five most recent
// values.
func (m *Memory) MetricTrends(ctx context.Context) (map[string]string, error) {
	history, err := m.MetricHistory(ctx, trendWindowDays)
	if err != nil {
		return nil, err
	}
	values := make(map[string][]float64)
	for _, r := range history {
		if v, ok := leadingNumber(r.Value); ok {
			values[r.Name] = append(values[r.Name], v)
		}
	}
	trends := make(map[string]string)
	for name, vs := range values {
		if len(vs) < 2 {
			continue
		}
		if len(vs) > trendReadings {
			vs = vs[len(vs)-trendReadings:]
		}
		first, last := vs[0], vs[len(vs)-1]
		switch {
		case last > first:
			trends[name] = DirectionIncreasing
		case last < first:
			trends[name] = DirectionDecreasing
		default:
			trends[name] = DirectionStable
		}
	}
	return trends, nil
}

// leadingNumber parses the first number of a reading, so "120/80" yields
// 120 and "13.5 g/dL" yields 13.5.
func leadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if !(c >= '0' && c <= '9' || c == '.' || (c == '-' && end == 0)) {
			break
		}
		end++
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	return v, err == nil
}
