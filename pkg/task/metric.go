package task

import (
	"fmt"
	"strings"
	"time"
)

// Metric is one health measurement, such as a lab value read from a
// document or a reading recalled from memory. Value stays textual so
// compound readings like "120/80" survive.
type Metric struct {
	Name       string    `json:"name" validate:"required"`
	Value      string    `json:"value" validate:"required"`
	Unit       string    `json:"unit,omitempty"`
	Flag       string    `json:"flag,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitzero"`
}

// String renders the metric as "name: value unit".
func (m Metric) String() string {
	s := m.Name + ": " + m.Value
	if m.Unit != "" {
		s += " " + m.Unit
	}
	if m.Flag != "" {
		s += " (" + m.Flag + ")"
	}
	return s
}

// MetricReporter is implemented by results that carry measurements worth
// remembering.
type MetricReporter interface {
	HealthMetrics() []Metric
}

// Metrics returns the value at key as a list of metrics. It accepts
// []Metric and the []any of objects decoded JSON produces.
func (c Context) Metrics(key string) []Metric {
	switch v := c[key].(type) {
	case []Metric:
		return append([]Metric(nil), v...)
	case []any:
		var out []Metric
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			m := Metric{
				Name:  Context(obj).String("name"),
				Value: Context(obj).String("value"),
				Unit:  Context(obj).String("unit"),
				Flag:  Context(obj).String("flag"),
			}
			if m.Name == "" || m.Value == "" {
				continue
			}
			if ts, err := time.Parse(time.RFC3339, Context(obj).String("recorded_at")); err == nil {
				m.RecordedAt = ts
			}
			out = append(out, m)
		}
		return out
	}
	return nil
}

// StringMap returns the value at key as a map of strings.
func (c Context) StringMap(key string) map[string]string {
	switch v := c[key].(type) {
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, s := range v {
			out[k] = strings.TrimSpace(fmt.Sprint(s))
		}
		return out
	}
	return nil
}
