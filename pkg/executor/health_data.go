package executor

import (
	"strings"

	"github.com/pantryplay/pantryplay/pkg/task"
)

func analyzeDocumentData(t *task.Task) any {
	p, _ := t.Params.(task.AnalyzeDocumentParams)
	return p
}

type queryData struct {
	task.HealthQueryParams
	DocumentSummary string
}

func healthQueryData(t *task.Task) any {
	p, _ := t.Params.(task.HealthQueryParams)
	d := queryData{HealthQueryParams: p}
	if doc, ok := previousDocument(t); ok {
		d.DocumentSummary = doc.Summary
		d.RecentMetrics = append(append([]task.Metric(nil), p.RecentMetrics...), doc.Metrics...)
		d.Medications = union(d.Medications, doc.Medications)
	}
	return d
}

type trendsData struct {
	task.AnalyzeTrendsParams
	Readings []task.Metric
}

func analyzeTrendsData(t *task.Task) any {
	p, _ := t.Params.(task.AnalyzeTrendsParams)
	return trendsData{AnalyzeTrendsParams: p, Readings: trendReadings(t)}
}

// trendReadings is the recalled history followed by any values read from a
// document earlier in the batch.
func trendReadings(t *task.Task) []task.Metric {
	p, _ := t.Params.(task.AnalyzeTrendsParams)
	readings := append([]task.Metric(nil), p.History...)
	if doc, ok := previousDocument(t); ok {
		readings = append(readings, doc.Metrics...)
	}
	return readings
}

// noHistory answers a trend analysis locally when there is nothing to
// compare.
func noHistory(t *task.Task) task.Result {
	if len(trendReadings(t)) > 0 {
		return nil
	}
	return &TrendReport{Trends: []MetricTrend{}, Insights: NoHistoryInsight}
}

func checkMedicationsData(t *task.Task) any {
	p, _ := t.Params.(task.CheckMedicationsParams)
	if doc, ok := previousDocument(t); ok {
		p.Medications = union(p.Medications, doc.Medications)
	}
	return p
}

type reportData struct {
	task.GenerateReportParams
	Findings []string
}

func generateReportData(t *task.Task) any {
	p, _ := t.Params.(task.GenerateReportParams)
	d := reportData{GenerateReportParams: p}
	d.Trends = make(map[string]string, len(p.Trends))
	for metric, direction := range p.Trends {
		d.Trends[metric] = direction
	}
	if doc, ok := previousDocument(t); ok {
		d.Findings = append(d.Findings, doc.Summary)
		d.Findings = append(d.Findings, doc.Concerns...)
		d.RecentMetrics = append(append([]task.Metric(nil), p.RecentMetrics...), doc.Metrics...)
	}
	if r, ok := t.PreviousResult(task.KindHealthQuery); ok {
		if a, ok := r.(*HealthAnswer); ok && a.Answer != "" {
			d.Findings = append(d.Findings, a.Answer)
		}
	}
	if r, ok := t.PreviousResult(task.KindAnalyzeTrends); ok {
		if tr, ok := r.(*TrendReport); ok {
			d.Findings = append(d.Findings, tr.Insights)
			for _, mt := range tr.Trends {
				if _, known := d.Trends[mt.Metric]; !known {
					d.Trends[mt.Metric] = mt.Direction
				}
			}
		}
	}
	if r, ok := t.PreviousResult(task.KindCheckMedications); ok {
		if mr, ok := r.(*MedicationReview); ok {
			d.Medications = union(d.Medications, mr.Names())
		}
	}
	return d
}

func previousDocument(t *task.Task) (*DocumentAnalysis, bool) {
	r, ok := t.PreviousResult(task.KindAnalyzeDocument)
	if !ok {
		return nil, false
	}
	doc, ok := r.(*DocumentAnalysis)
	return doc, ok
}

func union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, s := range list {
			key := strings.ToLower(strings.TrimSpace(s))
			if key != "" && !seen[key] {
				seen[key] = true
				out = append(out, s)
			}
		}
	}
	return out
}
