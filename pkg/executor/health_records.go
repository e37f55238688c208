package executor

import (
	"regexp"
	"strings"

	"github.com/pantryplay/pantryplay/pkg/task"
)

// NoHistoryInsight is the trend analysis answer when there is nothing to
// compare.
const NoHistoryInsight = "No historical data available for trend analysis."

// TermExplanation explains one medical term in plain language.
type TermExplanation struct {
	Term        string `json:"term" validate:"required"`
	Explanation string `json:"explanation"`
}

// DocumentAnalysis is the result of analyze_document. When the answer
// cannot be decoded, the summary falls back to the text and well-known
// values are read out of it.
type DocumentAnalysis struct {
	Summary      string            `json:"summary" validate:"required"`
	DocumentType string            `json:"document_type,omitempty"`
	Metrics      []task.Metric     `json:"metrics,omitempty" validate:"dive"`
	Terms        []TermExplanation `json:"terms,omitempty" validate:"dive"`
	Concerns     []string          `json:"concerns,omitempty"`
	Medications  []string          `json:"medications,omitempty"`

	Partial bool   `json:"partial,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// Status implements task.Result.
func (d *DocumentAnalysis) Status() task.Status { return partialStatus(d.Partial) }

// HealthMetrics implements task.MetricReporter.
func (d *DocumentAnalysis) HealthMetrics() []task.Metric { return d.Metrics }

// Flagged reports whether the document raised concerns or out of range
// values.
func (d *DocumentAnalysis) Flagged() bool {
	if len(d.Concerns) > 0 {
		return true
	}
	for _, m := range d.Metrics {
		if f := strings.ToLower(m.Flag); f != "" && f != "normal" {
			return true
		}
	}
	return false
}

func (d *DocumentAnalysis) markPartial(raw string) {
	d.Partial = true
	d.RawText = raw
	if d.Summary == "" {
		d.Summary = firstParagraph(raw)
	}
	if len(d.Metrics) == 0 {
		d.Metrics = scanMetrics(raw)
	}
}

// HealthAnswer is the result of health_query.
type HealthAnswer struct {
	Answer          string   `json:"answer" validate:"required"`
	ContextUsed     []string `json:"context_used,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Sources         []string `json:"sources,omitempty"`

	Partial bool   `json:"partial,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// Status implements task.Result.
func (a *HealthAnswer) Status() task.Status { return partialStatus(a.Partial) }

func (a *HealthAnswer) markPartial(raw string) {
	a.Partial = true
	a.RawText = raw
	if a.Answer == "" {
		a.Answer = strings.TrimSpace(stripFences(raw))
	}
}

// MetricTrend is the direction one metric took over the period.
type MetricTrend struct {
	Metric    string `json:"metric" validate:"required"`
	Direction string `json:"direction"`
	Change    string `json:"change,omitempty"`
}

// TrendReport is the result of analyze_trends.
type TrendReport struct {
	Trends    []MetricTrend `json:"trends" validate:"dive"`
	Insights  string        `json:"insights" validate:"required"`
	Attention []string      `json:"attention,omitempty"`
}

// Status implements task.Result.
func (*TrendReport) Status() task.Status { return task.StatusOK }

// MedicationInfo describes one medication.
type MedicationInfo struct {
	Name        string   `json:"name" validate:"required"`
	Purpose     string   `json:"purpose,omitempty"`
	SideEffects []string `json:"side_effects,omitempty"`
}

// Interaction is a known interaction between medications.
type Interaction struct {
	Medications []string `json:"medications,omitempty"`
	Severity    string   `json:"severity,omitempty"`
	Description string   `json:"description" validate:"required"`
}

// MedicationReview is the result of check_medications.
type MedicationReview struct {
	Medications        []MedicationInfo `json:"medications" validate:"required,min=1,dive"`
	Interactions       []Interaction    `json:"interactions,omitempty" validate:"dive"`
	Warnings           []string         `json:"warnings,omitempty"`
	QuestionsForDoctor []string         `json:"questions_for_doctor,omitempty"`
}

// Status implements task.Result.
func (*MedicationReview) Status() task.Status { return task.StatusOK }

// Names returns the medication names in order.
func (m *MedicationReview) Names() []string {
	out := make([]string, 0, len(m.Medications))
	for _, med := range m.Medications {
		out = append(out, med.Name)
	}
	return out
}

// ReportSection is one heading of a health report.
type ReportSection struct {
	Heading string `json:"heading" validate:"required"`
	Body    string `json:"body,omitempty"`
}

// HealthReport is the result of generate_report.
type HealthReport struct {
	Title         string          `json:"title,omitempty"`
	StatusSummary string          `json:"status_summary" validate:"required"`
	Sections      []ReportSection `json:"sections,omitempty" validate:"dive"`
	Questions     []string        `json:"questions,omitempty"`
	FollowUps     []string        `json:"follow_ups,omitempty"`

	Partial bool   `json:"partial,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// Status implements task.Result.
func (r *HealthReport) Status() task.Status { return partialStatus(r.Partial) }

func (r *HealthReport) markPartial(raw string) {
	r.Partial = true
	r.RawText = raw
	if r.Title == "" {
		r.Title = "Health Summary"
	}
	if r.StatusSummary == "" {
		r.StatusSummary = firstParagraph(raw)
	}
}

var metricPatterns = []struct {
	name    string
	unit    string
	pattern *regexp.Regexp
}{
	{"cholesterol", "mg/dL", regexp.MustCompile(`(?i)cholesterol[:\s]+(\d+)`)},
	{"blood_pressure", "mmHg", regexp.MustCompile(`(?i)blood pressure[:\s]+(\d+/\d+)`)},
	{"glucose", "mg/dL", regexp.MustCompile(`(?i)glucose[:\s]+(\d+)`)},
	{"hemoglobin", "g/dL", regexp.MustCompile(`(?i)hemoglobin[:\s]+(\d+\.?\d*)`)},
}

// scanMetrics reads well-known values out of free text.
func scanMetrics(text string) []task.Metric {
	var out []task.Metric
	for _, mp := range metricPatterns {
		if m := mp.pattern.FindStringSubmatch(text); m != nil {
			out = append(out, task.Metric{Name: mp.name, Value: m[1], Unit: mp.unit})
		}
	}
	return out
}

// firstParagraph returns the first block of prose in raw.
func firstParagraph(raw string) string {
	text := strings.TrimSpace(stripFences(raw))
	if i := strings.Index(text, "\n\n"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
