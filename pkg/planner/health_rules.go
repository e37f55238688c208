package planner

import (
	"regexp"
	"strings"

	"github.com/pantryplay/pantryplay/pkg/task"
)

// HealthRules returns the rule table of the Health Insights deployment.
// A request that matches nothing is still answered as a general question.
func HealthRules() []Rule {
	return []Rule{
		{
			Name:  "document",
			Match: anyOf(Keywords(documentKeywords...), hasDocument),
			Build: buildDocumentTasks,
		},
		{
			Name:  "question",
			Match: anyOf(Words("what", "why", "how", "when", "should", "is", "can", "does"), Keywords(healthTerms...)),
			Build: buildHealthQueryTasks,
		},
		{
			Name:  "trends",
			Match: anyOf(Keywords("trend", "history", "change", "progress", "over time", "improvement", "deterioration", "tracking"), hasHistory),
			Build: buildTrendTasks,
		},
		{
			Name:  "medications",
			Match: Keywords("medication", "medicine", "drug", "prescription", "pill", "dose", "interaction", "side effect"),
			Build: buildMedicationTasks,
		},
		{
			Name:  "report",
			Match: Keywords("report", "summary", "doctor visit", "appointment", "prepare", "print", "share"),
			Build: buildReportTasks,
		},
		{
			Name:     "general",
			Match:    func(string, task.Context) bool { return true },
			Build:    buildHealthQueryTasks,
			Fallback: true,
		},
	}
}

var documentKeywords = []string{
	"report", "lab result", "test result", "prescription", "doctor note",
	"medical record", "pdf", "image", "file",
}

var healthTerms = []string{
	"health", "medical", "symptom", "condition", "diagnosis",
	"treatment", "medicine", "doctor", "test", "result",
}

// Words matches when the input contains any of the given words as whole
// words. Words must be lower case.
func Words(words ...string) func(string, task.Context) bool {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return func(input string, _ task.Context) bool {
		return re.MatchString(input)
	}
}

func anyOf(preds ...func(string, task.Context) bool) func(string, task.Context) bool {
	return func(input string, ctx task.Context) bool {
		for _, p := range preds {
			if p(input, ctx) {
				return true
			}
		}
		return false
	}
}

func hasDocument(_ string, ctx task.Context) bool {
	return ctx.String(task.CtxDocumentText) != ""
}

func hasHistory(_ string, ctx task.Context) bool {
	return ctx.Bool(task.CtxHasHistoricalData)
}

func buildDocumentTasks(input string, ctx task.Context) []*task.Task {
	text := ctx.String(task.CtxDocumentText)
	kind := DocumentType(text)
	if text == "" {
		kind = DocumentType(input)
	}
	return []*task.Task{
		task.New(task.KindAnalyzeDocument, "Analyze the medical document", task.PriorityHigh,
			task.AnalyzeDocumentParams{
				UserInput:    input,
				DocumentText: text,
				DocumentType: kind,
			}),
	}
}

func buildHealthQueryTasks(input string, ctx task.Context) []*task.Task {
	return []*task.Task{
		task.New(task.KindHealthQuery, "Answer the health question", task.PriorityMedium,
			task.HealthQueryParams{
				Query:         input,
				RecentMetrics: ctx.Metrics(task.CtxRecentMetrics),
				Medications:   ctx.Strings(task.CtxMedications),
			}),
	}
}

func buildTrendTasks(_ string, ctx task.Context) []*task.Task {
	metrics := ctx.Strings(task.CtxMetrics)
	if len(metrics) == 0 {
		metrics = []string{"all"}
	}
	period := ctx.String(task.CtxTimePeriod)
	if period == "" {
		period = "all"
	}
	return []*task.Task{
		task.New(task.KindAnalyzeTrends, "Analyze health metric trends", task.PriorityMedium,
			task.AnalyzeTrendsParams{
				Metrics: metrics,
				Period:  period,
				History: ctx.Metrics(task.CtxMetricHistory),
			}),
	}
}

func buildMedicationTasks(input string, ctx task.Context) []*task.Task {
	return []*task.Task{
		task.New(task.KindCheckMedications, "Review medications and interactions", task.PriorityHigh,
			task.CheckMedicationsParams{
				UserInput:   input,
				Medications: ctx.Strings(task.CtxMedications),
			}),
	}
}

func buildReportTasks(input string, ctx task.Context) []*task.Task {
	return []*task.Task{
		task.New(task.KindGenerateReport, "Prepare a health summary for a doctor visit", task.PriorityLow,
			task.GenerateReportParams{
				UserInput:     input,
				RecentMetrics: ctx.Metrics(task.CtxRecentMetrics),
				Medications:   ctx.Strings(task.CtxMedications),
				Trends:        ctx.StringMap(task.CtxMetricTrends),
			}),
	}
}

// Document types recognized by DocumentType.
const (
	DocumentLabReport  = "lab_report"
	DocumentPrescribed = "prescription"
	DocumentRadiology  = "radiology"
	DocumentDoctorNote = "doctor_note"
	DocumentGeneral    = "general_medical"
)

var documentTypes = []struct {
	name     string
	keywords []string
}{
	{DocumentLabReport, []string{"lab", "blood", "urine", "test results"}},
	{DocumentPrescribed, []string{"prescription", "medication", "rx"}},
	{DocumentRadiology, []string{"x-ray", "mri", "ct scan", "ultrasound"}},
	{DocumentDoctorNote, []string{"diagnosis", "treatment plan", "consultation"}},
}

// DocumentType guesses the kind of medical document from its text. The
// first matching family wins.
func DocumentType(text string) string {
	lower := strings.ToLower(text)
	for _, dt := range documentTypes {
		if Keywords(dt.keywords...)(lower, nil) {
			return dt.name
		}
	}
	return DocumentGeneral
}
