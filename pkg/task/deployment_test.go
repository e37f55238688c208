package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeployment(t *testing.T) {
	tests := []struct {
		in      string
		want    Deployment
		wantErr bool
	}{
		{"", DeploymentPantryPlay, false},
		{"pantry_play", DeploymentPantryPlay, false},
		{" Health_Insights ", DeploymentHealthInsights, false},
		{"fitness", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDeployment(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDeploymentKinds(t *testing.T) {
	pantry := DeploymentPantryPlay.Kinds()
	health := DeploymentHealthInsights.Kinds()
	require.Len(t, pantry, 7)
	require.Len(t, health, 5)
	assert.Equal(t, append(pantry, health...), Kinds())

	for _, k := range health {
		assert.Equal(t, DeploymentHealthInsights, k.Deployment(), k)
	}
	for _, k := range pantry {
		assert.Equal(t, DeploymentPantryPlay, k.Deployment(), k)
	}
	assert.Nil(t, Deployment("fitness").Kinds())

	health[0] = "mutated"
	assert.Equal(t, KindAnalyzeDocument, DeploymentHealthInsights.Kinds()[0])
}

func TestContextMetrics(t *testing.T) {
	ts := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := Context{
		"typed": []Metric{{Name: "glucose", Value: "95", Unit: "mg/dL"}},
		"decoded": []any{
			map[string]any{"name": "ldl", "value": "130", "unit": "mg/dL", "recorded_at": ts.Format(time.RFC3339)},
			map[string]any{"name": "missing value"},
			"not an object",
		},
		"trends": map[string]any{"ldl": "increasing"},
	}

	assert.Equal(t, "glucose: 95 mg/dL", ctx.Metrics("typed")[0].String())

	decoded := ctx.Metrics("decoded")
	require.Len(t, decoded, 1)
	assert.Equal(t, Metric{Name: "ldl", Value: "130", Unit: "mg/dL", RecordedAt: ts}, decoded[0])

	assert.Nil(t, ctx.Metrics("absent"))
	assert.Equal(t, map[string]string{"ldl": "increasing"}, ctx.StringMap("trends"))
	assert.Equal(t, "bp: 120/80 mmHg (high)", Metric{Name: "bp", Value: "120/80", Unit: "mmHg", Flag: "high"}.String())
}
