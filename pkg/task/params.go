package task

// Params is the typed input of a task. Each kind has exactly one
// implementation.
type Params interface {
	Kind() Kind
}

// AnalyzePantryParams describes what the user has on hand.
type AnalyzePantryParams struct {
	UserInput    string   `json:"user_input"`
	Items        []string `json:"items,omitempty"`
	DocumentText string   `json:"document_text,omitempty"`
}

// GenerateRecipeParams constrains recipe generation.
type GenerateRecipeParams struct {
	UserInput           string   `json:"user_input"`
	Ingredients         []string `json:"ingredients,omitempty"`
	DietaryPreferences  []string `json:"dietary_preferences,omitempty"`
	DislikedIngredients []string `json:"disliked_ingredients,omitempty"`
	FavoriteCuisines    []string `json:"favorite_cuisines,omitempty"`
	SkillLevel          string   `json:"skill_level,omitempty"`
	RecentRecipes       []string `json:"recent_recipes,omitempty"`
}

// CheckNutritionParams names the dish to analyze. When a recipe was
// generated earlier in the batch, that recipe takes precedence.
type CheckNutritionParams struct {
	Recipe string   `json:"recipe,omitempty"`
	Goals  []string `json:"goals,omitempty"`
}

// SuggestSubstitutionsParams lists missing and available ingredients.
type SuggestSubstitutionsParams struct {
	UserInput string   `json:"user_input"`
	Missing   []string `json:"missing,omitempty"`
	Available []string `json:"available,omitempty"`
}

// ShoppingListParams describes the meals to shop for.
type ShoppingListParams struct {
	MealPlan      []string `json:"meal_plan,omitempty"`
	CurrentPantry []string `json:"current_pantry,omitempty"`
	Budget        float64  `json:"budget,omitempty"`
}

// TrackWasteParams lists leftovers to transform.
type TrackWasteParams struct {
	UserInput string   `json:"user_input"`
	Leftovers []string `json:"leftovers,omitempty"`
}

// MoodWeatherParams carries the mood and weather signals.
type MoodWeatherParams struct {
	Mood    string `json:"mood,omitempty"`
	Weather string `json:"weather,omitempty"`
}

// AnalyzeDocumentParams carries a medical document to explain.
type AnalyzeDocumentParams struct {
	UserInput    string `json:"user_input"`
	DocumentText string `json:"document_text,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
}

// HealthQueryParams carries a health question and what is known about the
// user.
type HealthQueryParams struct {
	Query         string   `json:"query"`
	RecentMetrics []Metric `json:"recent_metrics,omitempty"`
	Medications   []string `json:"medications,omitempty"`
}

// AnalyzeTrendsParams selects the metrics and period to review. History
// holds the readings recalled for the user, oldest first.
type AnalyzeTrendsParams struct {
	Metrics []string `json:"metrics,omitempty"`
	Period  string   `json:"period,omitempty"`
	History []Metric `json:"history,omitempty"`
}

// CheckMedicationsParams lists the medications to review.
type CheckMedicationsParams struct {
	UserInput   string   `json:"user_input"`
	Medications []string `json:"medications,omitempty"`
}

// GenerateReportParams gathers what a doctor visit summary draws on.
type GenerateReportParams struct {
	UserInput     string            `json:"user_input"`
	RecentMetrics []Metric          `json:"recent_metrics,omitempty"`
	Medications   []string          `json:"medications,omitempty"`
	Trends        map[string]string `json:"trends,omitempty"`
}

func (AnalyzePantryParams) Kind() Kind        { return KindAnalyzePantry }
func (GenerateRecipeParams) Kind() Kind       { return KindGenerateRecipe }
func (CheckNutritionParams) Kind() Kind       { return KindCheckNutrition }
func (SuggestSubstitutionsParams) Kind() Kind { return KindSuggestSubstitutions }
func (ShoppingListParams) Kind() Kind         { return KindCreateShoppingList }
func (TrackWasteParams) Kind() Kind           { return KindTrackWaste }
func (MoodWeatherParams) Kind() Kind          { return KindMoodWeather }
func (AnalyzeDocumentParams) Kind() Kind      { return KindAnalyzeDocument }
func (HealthQueryParams) Kind() Kind          { return KindHealthQuery }
func (AnalyzeTrendsParams) Kind() Kind        { return KindAnalyzeTrends }
func (CheckMedicationsParams) Kind() Kind     { return KindCheckMedications }
func (GenerateReportParams) Kind() Kind       { return KindGenerateReport }
