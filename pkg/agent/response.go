package agent

import (
	"fmt"
	"strings"

	"github.com/pantryplay/pantryplay/pkg/executor"
	"github.com/pantryplay/pantryplay/pkg/task"
)

// Response is the outcome of one request.
type Response struct {
	BatchID        string                    `json:"batch_id"`
	Success        bool                      `json:"success"`
	TasksCompleted int                       `json:"tasks_completed"`
	TotalTasks     int                       `json:"total_tasks"`
	Results        map[task.Kind]task.Result `json:"results"`
	Summary        string                    `json:"summary"`
	NextSteps      []string                  `json:"next_steps"`
}

const defaultSummary = "Processed your request"

// summarize builds one clause per usable result, in kind order.
func summarize(results map[task.Kind]task.Result) string {
	var clauses []string
	for _, kind := range task.Kinds() {
		r, ok := results[kind]
		if !ok || !task.Succeeded(r) {
			continue
		}
		if clause := summaryClause(kind, r); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return defaultSummary
	}
	return strings.Join(clauses, ", ")
}

func summaryClause(kind task.Kind, r task.Result) string {
	switch kind {
	case task.KindAnalyzePantry:
		return "Analyzed your pantry ingredients"
	case task.KindGenerateRecipe:
		name := "a delicious meal"
		if rec, ok := r.(*executor.Recipe); ok && rec.Name != "" {
			name = rec.Name
		}
		return "Created a recipe for " + name
	case task.KindCheckNutrition:
		return "Checked the nutrition of your meal"
	case task.KindSuggestSubstitutions:
		return "Suggested ingredient substitutions"
	case task.KindCreateShoppingList:
		return "Generated an optimized shopping list"
	case task.KindTrackWaste:
		return "Provided leftover transformation ideas"
	case task.KindMoodWeather:
		return "Matched meals to your mood and the weather"

	case task.KindAnalyzeDocument:
		if doc, ok := r.(*executor.DocumentAnalysis); ok && len(doc.Metrics) > 0 {
			noun := "measurements"
			if len(doc.Metrics) == 1 {
				noun = "measurement"
			}
			return fmt.Sprintf("Analyzed your medical document and found %d %s", len(doc.Metrics), noun)
		}
		return "Analyzed your medical document"
	case task.KindHealthQuery:
		return "Answered your health question"
	case task.KindAnalyzeTrends:
		if tr, ok := r.(*executor.TrendReport); ok && len(tr.Trends) == 0 {
			return "Checked your health history for trends"
		}
		return "Reviewed trends in your health metrics"
	case task.KindCheckMedications:
		return "Reviewed your medications"
	case task.KindGenerateReport:
		return "Prepared a summary for your doctor visit"
	}
	return ""
}

// nextSteps suggests follow-up actions from the results.
func nextSteps(results map[task.Kind]task.Result) []string {
	steps := []string{}

	if r, ok := results[task.KindGenerateRecipe]; ok && task.Succeeded(r) {
		steps = append(steps,
			"Start cooking and track your progress",
			"Share the recipe with friends",
			"Rate the recipe after cooking",
		)
	}
	if a, ok := results[task.KindAnalyzePantry].(*executor.PantryAnalysis); ok && len(a.ExpiringSoon) > 0 {
		steps = append(steps, "Use expiring ingredients first")
	}
	if r, ok := results[task.KindCreateShoppingList]; ok && task.Succeeded(r) {
		steps = append(steps, "Order groceries online or visit the store")
	}
	if r, ok := results[task.KindTrackWaste]; ok && task.Succeeded(r) {
		steps = append(steps, "Store leftovers in airtight containers and label them with the date")
	}

	if doc, ok := results[task.KindAnalyzeDocument].(*executor.DocumentAnalysis); ok && doc.Flagged() {
		steps = append(steps, "Discuss the flagged values with your doctor")
	}
	if tr, ok := results[task.KindAnalyzeTrends].(*executor.TrendReport); ok && len(tr.Attention) > 0 {
		steps = append(steps, "Keep tracking: "+strings.Join(tr.Attention, ", "))
	}
	if mr, ok := results[task.KindCheckMedications].(*executor.MedicationReview); ok && len(mr.Interactions) > 0 {
		steps = append(steps, "Ask your pharmacist about the listed interactions")
	}
	if r, ok := results[task.KindGenerateReport]; ok && task.Succeeded(r) {
		steps = append(steps, "Print or share the summary before your appointment")
	}
	if r, ok := results[task.KindHealthQuery]; ok && task.Succeeded(r) {
		steps = append(steps, "Consult a healthcare professional before changing your treatment")
	}

	var failed []string
	for _, kind := range task.Kinds() {
		if r, ok := results[kind]; ok && !task.Succeeded(r) {
			failed = append(failed, string(kind))
		}
	}
	if len(failed) > 0 {
		steps = append(steps, fmt.Sprintf("Try again later for: %s", strings.Join(failed, ", ")))
	}
	return steps
}
