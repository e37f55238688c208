package executor

import (
	"encoding/json"
	"strings"

	"github.com/pantryplay/pantryplay/pkg/task"
)

// RawResponse keeps the provider's text when an analysis-style response
// could not be decoded.
type RawResponse struct {
	Text string `json:"rawResponse"`
}

// Status implements task.Result.
func (*RawResponse) Status() task.Status { return task.StatusDegraded }

// PantryItem is one ingredient found by a pantry analysis.
type PantryItem struct {
	Name          string `json:"name" validate:"required"`
	Quantity      string `json:"quantity,omitempty"`
	Category      string `json:"category,omitempty"`
	ExpiresInDays *int   `json:"expires_in_days,omitempty"`
}

// PantryAnalysis is the result of analyze_pantry.
type PantryAnalysis struct {
	Ingredients  []PantryItem        `json:"ingredients" validate:"required,min=1,dive"`
	Categories   map[string][]string `json:"categories,omitempty"`
	ExpiringSoon []string            `json:"expiring_soon,omitempty"`
}

// Status implements task.Result.
func (*PantryAnalysis) Status() task.Status { return task.StatusOK }

// Names returns the ingredient names in order.
func (p *PantryAnalysis) Names() []string {
	out := make([]string, 0, len(p.Ingredients))
	for _, it := range p.Ingredients {
		out = append(out, it.Name)
	}
	return out
}

// RecipeIngredient is an ingredient line of a recipe. It decodes from
// either an object or a bare string.
type RecipeIngredient struct {
	Name     string `json:"name" validate:"required"`
	Quantity string `json:"quantity,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (ri *RecipeIngredient) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*ri = RecipeIngredient{Name: strings.TrimSpace(s)}
		return nil
	}
	type plain RecipeIngredient
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*ri = RecipeIngredient(p)
	return nil
}

// Nutrition is a per-serving estimate.
type Nutrition struct {
	Calories float64 `json:"calories,omitempty" validate:"gte=0"`
	ProteinG float64 `json:"protein_g,omitempty" validate:"gte=0"`
	CarbsG   float64 `json:"carbs_g,omitempty" validate:"gte=0"`
	FatG     float64 `json:"fat_g,omitempty" validate:"gte=0"`
}

// Recipe is the result of generate_recipe.
type Recipe struct {
	Name         string             `json:"name" validate:"required"`
	Description  string             `json:"description,omitempty"`
	Cuisine      string             `json:"cuisine,omitempty"`
	PrepMinutes  int                `json:"prep_time,omitempty" validate:"gte=0"`
	CookMinutes  int                `json:"cook_time,omitempty" validate:"gte=0"`
	Servings     int                `json:"servings,omitempty" validate:"gte=0"`
	Ingredients  []RecipeIngredient `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []string           `json:"instructions" validate:"required,min=1"`
	Nutrition    *Nutrition         `json:"nutrition,omitempty"`
	LeftoverTips []string           `json:"leftover_ideas,omitempty"`

	Partial bool   `json:"partial,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// Status implements task.Result.
func (r *Recipe) Status() task.Status { return partialStatus(r.Partial) }

// IngredientNames returns the ingredient names in order.
func (r *Recipe) IngredientNames() []string {
	out := make([]string, 0, len(r.Ingredients))
	for _, it := range r.Ingredients {
		out = append(out, it.Name)
	}
	return out
}

func (r *Recipe) markPartial(raw string) {
	r.Partial = true
	r.RawText = raw
	if r.Name == "" {
		r.Name = guessTitle(raw)
	}
}

// Macros holds macronutrient grams per serving.
type Macros struct {
	ProteinG float64 `json:"protein_g" validate:"gte=0"`
	CarbsG   float64 `json:"carbs_g" validate:"gte=0"`
	FatG     float64 `json:"fat_g" validate:"gte=0"`
}

// NutritionReport is the result of check_nutrition.
type NutritionReport struct {
	Calories       float64  `json:"calories" validate:"gte=0"`
	Macros         Macros   `json:"macros"`
	Vitamins       []string `json:"vitamins,omitempty"`
	DietaryLabels  []string `json:"dietary_labels,omitempty"`
	HealthBenefits []string `json:"health_benefits,omitempty"`
	Score          int      `json:"score" validate:"min=1,max=10"`
}

// Status implements task.Result.
func (*NutritionReport) Status() task.Status { return task.StatusOK }

// Substitution replaces one missing ingredient.
type Substitution struct {
	Missing     string `json:"missing" validate:"required"`
	Replacement string `json:"replacement" validate:"required"`
	Effect      string `json:"effect,omitempty"`
	Adjustments string `json:"adjustments,omitempty"`
}

// Substitutions is the result of suggest_substitutions.
type Substitutions struct {
	Substitutions []Substitution `json:"substitutions" validate:"required,min=1,dive"`
}

// Status implements task.Result.
func (*Substitutions) Status() task.Status { return task.StatusOK }

// ShoppingItem is one line of a shopping list.
type ShoppingItem struct {
	Name          string  `json:"name" validate:"required"`
	Quantity      string  `json:"quantity,omitempty"`
	Section       string  `json:"section,omitempty"`
	EstimatedCost float64 `json:"estimated_cost,omitempty" validate:"gte=0"`
}

// ShoppingList is the result of create_shopping_list.
type ShoppingList struct {
	Items          []ShoppingItem `json:"items" validate:"required,min=1,dive"`
	EstimatedTotal float64        `json:"estimated_total,omitempty" validate:"gte=0"`
	Tips           []string       `json:"tips,omitempty"`

	Partial bool   `json:"partial,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// Status implements task.Result.
func (s *ShoppingList) Status() task.Status { return partialStatus(s.Partial) }

func (s *ShoppingList) markPartial(raw string) {
	s.Partial = true
	s.RawText = raw
}

// WasteIdea turns a leftover into a dish.
type WasteIdea struct {
	Leftover    string `json:"leftover,omitempty"`
	Dish        string `json:"dish" validate:"required"`
	Description string `json:"description,omitempty"`
}

// WasteReport is the result of track_waste. The amounts feed the user's
// statistics when the report is stored.
type WasteReport struct {
	Ideas        []WasteIdea `json:"ideas" validate:"required,min=1,dive"`
	Tips         []string    `json:"tips,omitempty"`
	WasteAmount  float64     `json:"waste_amount" validate:"gte=0"`
	WasteReduced float64     `json:"waste_reduced" validate:"gte=0"`
	MoneySaved   float64     `json:"money_saved" validate:"gte=0"`
}

// Status implements task.Result.
func (*WasteReport) Status() task.Status { return task.StatusOK }

// MealSuggestion is one mood or weather based meal idea.
type MealSuggestion struct {
	Name   string `json:"name" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

// MoodMeals is the result of mood_weather_recommend.
type MoodMeals struct {
	Meals         []MealSuggestion `json:"meals" validate:"required,min=1,dive"`
	ComfortFactor string           `json:"comfort_factor,omitempty"`
	Playlist      []string         `json:"playlist,omitempty"`

	Partial bool   `json:"partial,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// Status implements task.Result.
func (m *MoodMeals) Status() task.Status { return partialStatus(m.Partial) }

func (m *MoodMeals) markPartial(raw string) {
	m.Partial = true
	m.RawText = raw
}

func partialStatus(partial bool) task.Status {
	if partial {
		return task.StatusDegraded
	}
	return task.StatusOK
}

// guessTitle takes the first non-empty line of free text as a title.
func guessTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#*-> "))
		line = strings.Trim(line, "*_ ")
		if line == "" || strings.HasPrefix(line, "```") || strings.HasPrefix(line, "{") {
			continue
		}
		if r := []rune(line); len(r) > 80 {
			line = string(r[:80])
		}
		return line
	}
	return ""
}
