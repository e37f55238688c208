package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

const (
	patternRecipeWindow = 20
	patternWasteWindow  = 30
	topIngredientsCount = 10
	topCuisinesCount    = 5
)

type recipeSummary struct {
	Cuisine     string            `json:"cuisine"`
	Ingredients []json.RawMessage `json:"ingredients"`
}

type wasteAmount struct {
	WasteAmount *float64 `json:"waste_amount"`
}

// AnalyzePatterns derives favorite ingredients and cuisines from the last
// 20 recipes and a waste trend from the last 30 waste entries.
func (m *Memory) AnalyzePatterns(ctx context.Context) (*Patterns, error) {
	recipes, err := m.Retrieve(ctx, KindRecipeHistory, patternRecipeWindow)
	if err != nil {
		return nil, err
	}
	waste, err := m.Retrieve(ctx, KindWasteTracking, patternWasteWindow)
	if err != nil {
		return nil, err
	}

	ingredients := newCounter()
	cuisines := newCounter()
	for _, e := range recipes {
		var r recipeSummary
		if err := e.Decode(&r); err != nil {
			m.log.DebugContext(ctx, "skipping undecodable recipe entry", "id", e.ID, "error", err)
			continue
		}
		for _, raw := range r.Ingredients {
			ingredients.add(ingredientName(raw))
		}
		cuisines.add(r.Cuisine)
	}

	return &Patterns{
		FavoriteIngredients: ingredients.top(topIngredientsCount),
		FavoriteCuisines:    cuisines.top(topCuisinesCount),
		CookingFrequency:    float64(len(recipes)) / patternRecipeWindow,
		WasteTrend:          wasteTrend(waste),
	}, nil
}

// wasteTrend compares summed waste amounts of the older and newer halves.
// Entries without a waste_amount, such as unparsed model output, carry no
// measurement and are left out.
func wasteTrend(entries []Entry) Trend {
	amounts := make([]float64, 0, len(entries))
	for _, e := range entries {
		var w wasteAmount
		if err := e.Decode(&w); err != nil || w.WasteAmount == nil {
			continue
		}
		amounts = append(amounts, *w.WasteAmount)
	}
	return classifyTrend(amounts)
}

func classifyTrend(amounts []float64) Trend {
	if len(amounts) < 2 {
		return TrendInsufficientData
	}
	mid := len(amounts) / 2
	var first, second float64
	for _, a := range amounts[:mid] {
		first += a
	}
	for _, a := range amounts[mid:] {
		second += a
	}
	switch {
	case second < first:
		return TrendImproving
	case second > first:
		return TrendNeedsAttention
	default:
		return TrendStable
	}
}

// ingredientName accepts either a bare string or an object with a name.
func ingredientName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// counter ranks names by frequency; ties keep first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	if _, seen := c.counts[name]; !seen {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) top(n int) []Frequency {
	out := make([]Frequency, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, Frequency{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
