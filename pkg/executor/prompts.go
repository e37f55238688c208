package executor

import (
	"strings"
	"text/template"

	"github.com/pantryplay/pantryplay/pkg/task"
)

var promptFuncs = template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
	"metrics": func(items []task.Metric) string {
		parts := make([]string, len(items))
		for i, m := range items {
			parts[i] = m.String()
		}
		return strings.Join(parts, "; ")
	},
}

func prompt(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(promptFuncs).Parse(strings.TrimSpace(text) + "\n"))
}

var analyzePantryPrompt = prompt("analyze_pantry", `
You are a kitchen assistant taking stock of a pantry.
Pantry items: {{if .Items}}{{join .Items}}{{else}}none listed{{end}}
{{- if .DocumentText}}
Receipt or document text:
{{.DocumentText}}
{{- end}}
{{- if .UserInput}}
Request: {{.UserInput}}
{{- end}}

Respond with a single JSON object and nothing else:
{"ingredients":[{"name":"","quantity":"","category":"","expires_in_days":0}],
 "categories":{"<category>":["<ingredient>"]},
 "expiring_soon":["<ingredient>"]}
`)

var generateRecipePrompt = prompt("generate_recipe", `
Create a creative, delicious recipe using ONLY these ingredients: {{if .Ingredients}}{{join .Ingredients}}{{else}}common pantry staples{{end}}
{{- if .UseFirst}}
Use these first, they expire soon: {{join .UseFirst}}
{{- end}}
{{- if .DietaryPreferences}}
Dietary preferences: {{join .DietaryPreferences}}
{{- end}}
{{- if .DislikedIngredients}}
Avoid: {{join .DislikedIngredients}}
{{- end}}
{{- if .FavoriteCuisines}}
Favorite cuisines: {{join .FavoriteCuisines}}
{{- end}}
{{- if .SkillLevel}}
Cooking skill level: {{.SkillLevel}}
{{- end}}
{{- if .RecentRecipes}}
Recently cooked, suggest something different: {{join .RecentRecipes}}
{{- end}}
{{- if .UserInput}}
Request: {{.UserInput}}
{{- end}}

Respond with a single JSON object and nothing else:
{"name":"","description":"","cuisine":"","prep_time":0,"cook_time":0,"servings":0,
 "ingredients":[{"name":"","quantity":""}],
 "instructions":[""],
 "nutrition":{"calories":0,"protein_g":0,"carbs_g":0,"fat_g":0},
 "leftover_ideas":[""]}
`)

var checkNutritionPrompt = prompt("check_nutrition", `
Calculate nutritional information per serving for this dish: {{if .Recipe}}{{.Recipe}}{{else}}a typical home-cooked meal{{end}}
{{- if .Ingredients}}
Ingredients: {{join .Ingredients}}
{{- end}}
{{- if .Goals}}
Nutrition goals: {{join .Goals}}
{{- end}}

Respond with a single JSON object and nothing else:
{"calories":0,"macros":{"protein_g":0,"carbs_g":0,"fat_g":0},
 "vitamins":[""],"dietary_labels":[""],"health_benefits":[""],"score":1}
Score is a nutritional score from 1 to 10.
`)

var suggestSubstitutionsPrompt = prompt("suggest_substitutions", `
Suggest substitutions for these missing ingredients: {{if .Missing}}{{join .Missing}}{{else}}whatever the request mentions{{end}}
Available ingredients: {{if .Available}}{{join .Available}}{{else}}unknown{{end}}
{{- if .Dish}}
The dish being cooked: {{.Dish}}
{{- end}}
{{- if .UserInput}}
Request: {{.UserInput}}
{{- end}}

For each substitution explain how it affects the dish and any adjustments needed.
Respond with a single JSON object and nothing else:
{"substitutions":[{"missing":"","replacement":"","effect":"","adjustments":""}]}
`)

var createShoppingListPrompt = prompt("create_shopping_list", `
Create an optimized shopping list.
Meal plan: {{if .MealPlan}}{{join .MealPlan}}{{else}}a balanced week of dinners{{end}}
Current pantry: {{if .CurrentPantry}}{{join .CurrentPantry}}{{else}}empty{{end}}
{{- if gt .Budget 0.0}}
Budget: {{printf "%.2f" .Budget}}
{{- end}}

Group items by store section, skip what the pantry already has and suggest budget-friendly alternatives.
Respond with a single JSON object and nothing else:
{"items":[{"name":"","quantity":"","section":"","estimated_cost":0}],"estimated_total":0,"tips":[""]}
`)

var trackWastePrompt = prompt("track_waste", `
Transform these leftovers into new dishes: {{if .Leftovers}}{{join .Leftovers}}{{else}}whatever the request mentions{{end}}
{{- if .UserInput}}
Request: {{.UserInput}}
{{- end}}

Include zero-waste and storage tips. Estimate the food waste in kilograms before
and the amount avoided by these ideas, and the money saved.
Respond with a single JSON object and nothing else:
{"ideas":[{"leftover":"","dish":"","description":""}],"tips":[""],
 "waste_amount":0,"waste_reduced":0,"money_saved":0}
`)

var moodWeatherPrompt = prompt("mood_weather_recommend", `
Suggest three meals that fit the moment.
Mood: {{if .Mood}}{{.Mood}}{{else}}neutral{{end}}
Weather: {{if .Weather}}{{.Weather}}{{else}}unknown{{end}}

Explain the comfort factor and add a short cooking playlist.
Respond with a single JSON object and nothing else:
{"meals":[{"name":"","reason":""}],"comfort_factor":"","playlist":[""]}
`)
