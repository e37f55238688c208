package planner

import (
	"regexp"
	"strings"

	"github.com/pantryplay/pantryplay/pkg/task"
)

// DefaultRules returns the pantry assistant's rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "recipe",
			Match: Keywords("recipe", "cook", "make for dinner", "what can i make"),
			Build: buildRecipeTasks,
		},
		{
			Name:  "substitution",
			Match: Keywords("substitut", "instead of", "replace", "out of", "don't have"),
			Build: buildSubstitutionTasks,
		},
		{
			Name:  "shopping",
			Match: Keywords("shopping", "grocery", "groceries"),
			Build: buildShoppingTasks,
		},
		{
			Name:  "mood_weather",
			Match: Keywords("mood", "weather"),
			Build: buildMoodWeatherTasks,
		},
		{
			Name:  "waste",
			Match: Keywords("waste", "leftover"),
			Build: buildWasteTasks,
		},
	}
}

// RulesFor returns the rule table of a deployment. Unknown deployments get
// the pantry table.
func RulesFor(d task.Deployment) []Rule {
	if d == task.DeploymentHealthInsights {
		return HealthRules()
	}
	return DefaultRules()
}

// Keywords matches when the input contains any of the given substrings.
// Keywords must be lower case.
func Keywords(keywords ...string) func(string, task.Context) bool {
	return func(input string, _ task.Context) bool {
		for _, kw := range keywords {
			if strings.Contains(input, kw) {
				return true
			}
		}
		return false
	}
}

func buildRecipeTasks(input string, ctx task.Context) []*task.Task {
	ingredients := availableIngredients(input, ctx)
	prefs := ctx.Map(task.CtxUserPreferences)

	tasks := []*task.Task{
		task.New(task.KindAnalyzePantry, "Analyze available pantry ingredients", task.PriorityHigh,
			task.AnalyzePantryParams{
				UserInput:    input,
				Items:        ingredients,
				DocumentText: ctx.String(task.CtxDocumentText),
			}),
		task.New(task.KindGenerateRecipe, "Generate a recipe from available ingredients", task.PriorityHigh,
			task.GenerateRecipeParams{
				UserInput:           input,
				Ingredients:         ingredients,
				DietaryPreferences:  union(ctx.Strings(task.CtxDietaryPreferences), prefs.Strings(task.CtxPreferenceDiet)),
				DislikedIngredients: prefs.Strings(task.CtxPreferenceDislikes),
				FavoriteCuisines:    prefs.Strings(task.CtxPreferenceCuisines),
				SkillLevel:          prefs.String(task.CtxPreferenceSkill),
				RecentRecipes:       ctx.Strings(task.CtxRecentRecipes),
			}),
	}

	lower := strings.ToLower(input)
	if ctx.Bool(task.CtxTrackNutrition) || strings.Contains(lower, "nutrition") || strings.Contains(lower, "calorie") {
		tasks = append(tasks, task.New(task.KindCheckNutrition, "Check nutritional content of the recipe", task.PriorityMedium,
			task.CheckNutritionParams{
				Recipe: ctx.String(task.CtxRecipe),
				Goals:  ctx.Strings(task.CtxNutritionGoals),
			}))
	}
	return tasks
}

func buildSubstitutionTasks(input string, ctx task.Context) []*task.Task {
	return []*task.Task{
		task.New(task.KindSuggestSubstitutions, "Suggest ingredient substitutions", task.PriorityMedium,
			task.SuggestSubstitutionsParams{
				UserInput: input,
				Missing:   ctx.Strings(task.CtxMissingIngredients),
				Available: availableIngredients(input, ctx),
			}),
	}
}

func buildShoppingTasks(input string, ctx task.Context) []*task.Task {
	return []*task.Task{
		task.New(task.KindCreateShoppingList, "Create an optimized shopping list", task.PriorityHigh,
			task.ShoppingListParams{
				MealPlan:      ctx.Strings(task.CtxMealPlan),
				CurrentPantry: availableIngredients(input, ctx),
				Budget:        ctx.Float(task.CtxBudget),
			}),
	}
}

func buildMoodWeatherTasks(_ string, ctx task.Context) []*task.Task {
	return []*task.Task{
		task.New(task.KindMoodWeather, "Recommend meals for the mood and weather", task.PriorityHigh,
			task.MoodWeatherParams{
				Mood:    ctx.String(task.CtxMood),
				Weather: ctx.String(task.CtxWeather),
			}),
	}
}

func buildWasteTasks(input string, ctx task.Context) []*task.Task {
	leftovers := ctx.Strings(task.CtxLeftovers)
	if len(leftovers) == 0 {
		leftovers = availableIngredients(input, ctx)
	}
	return []*task.Task{
		task.New(task.KindTrackWaste, "Suggest ways to use leftovers", task.PriorityHigh,
			task.TrackWasteParams{UserInput: input, Leftovers: leftovers}),
	}
}

// availableIngredients prefers explicit context and falls back to a
// "with X, Y and Z" phrase in the input.
func availableIngredients(input string, ctx task.Context) []string {
	if items := ctx.Strings(task.CtxIngredients); len(items) > 0 {
		return items
	}
	if items := ctx.Strings(task.CtxItems); len(items) > 0 {
		return items
	}
	return ingredientsFromInput(input)
}

var withPhrase = regexp.MustCompile(`(?i)\bwith\s+([^?.!;]+)`)

var listSeparator = regexp.MustCompile(`\s*(?:,|\band\b|&)\s*`)

func ingredientsFromInput(input string) []string {
	m := withPhrase.FindStringSubmatch(input)
	if m == nil {
		return nil
	}
	var out []string
	for _, part := range listSeparator.Split(m[1], -1) {
		part = strings.TrimSpace(strings.ToLower(part))
		part = strings.TrimPrefix(part, "some ")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, s := range list {
			key := strings.ToLower(s)
			if !seen[key] {
				seen[key] = true
				out = append(out, s)
			}
		}
	}
	return out
}
