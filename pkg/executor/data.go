package executor

import (
	"github.com/pantryplay/pantryplay/pkg/task"
)

// Prompt data builders. Each reads the task's typed params and, where it
// helps, the results of tasks that ran earlier in the same batch.

func analyzePantryData(t *task.Task) any {
	p, _ := t.Params.(task.AnalyzePantryParams)
	return p
}

type recipeData struct {
	task.GenerateRecipeParams
	UseFirst []string
}

func generateRecipeData(t *task.Task) any {
	p, _ := t.Params.(task.GenerateRecipeParams)
	d := recipeData{GenerateRecipeParams: p}
	if analysis, ok := previousAnalysis(t); ok {
		if len(d.Ingredients) == 0 {
			d.Ingredients = analysis.Names()
		}
		d.UseFirst = analysis.ExpiringSoon
	}
	return d
}

type nutritionData struct {
	task.CheckNutritionParams
	Ingredients []string
}

func checkNutritionData(t *task.Task) any {
	p, _ := t.Params.(task.CheckNutritionParams)
	d := nutritionData{CheckNutritionParams: p}
	if recipe, ok := previousRecipe(t); ok {
		d.Recipe = recipe.Name
		d.Ingredients = recipe.IngredientNames()
	}
	return d
}

type substitutionData struct {
	task.SuggestSubstitutionsParams
	Dish string
}

func suggestSubstitutionsData(t *task.Task) any {
	p, _ := t.Params.(task.SuggestSubstitutionsParams)
	d := substitutionData{SuggestSubstitutionsParams: p}
	if recipe, ok := previousRecipe(t); ok {
		d.Dish = recipe.Name
	}
	if analysis, ok := previousAnalysis(t); ok && len(d.Available) == 0 {
		d.Available = analysis.Names()
	}
	return d
}

func createShoppingListData(t *task.Task) any {
	p, _ := t.Params.(task.ShoppingListParams)
	if recipe, ok := previousRecipe(t); ok && len(p.MealPlan) == 0 {
		p.MealPlan = []string{recipe.Name}
	}
	if analysis, ok := previousAnalysis(t); ok && len(p.CurrentPantry) == 0 {
		p.CurrentPantry = analysis.Names()
	}
	return p
}

func trackWasteData(t *task.Task) any {
	p, _ := t.Params.(task.TrackWasteParams)
	return p
}

func moodWeatherData(t *task.Task) any {
	p, _ := t.Params.(task.MoodWeatherParams)
	return p
}

func previousAnalysis(t *task.Task) (*PantryAnalysis, bool) {
	r, ok := t.PreviousResult(task.KindAnalyzePantry)
	if !ok {
		return nil, false
	}
	a, ok := r.(*PantryAnalysis)
	return a, ok
}

// previousRecipe returns an earlier recipe, including a partial one as long
// as it has a name.
func previousRecipe(t *task.Task) (*Recipe, bool) {
	r, ok := t.PreviousResult(task.KindGenerateRecipe)
	if !ok {
		return nil, false
	}
	recipe, ok := r.(*Recipe)
	if !ok || recipe.Name == "" {
		return nil, false
	}
	return recipe, true
}
