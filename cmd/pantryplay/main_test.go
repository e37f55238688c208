package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/llm"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/memory"
)

var kitchen = llm.ProviderFunc(func(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "taking stock of a pantry"):
		return `{"ingredients":[{"name":"tomatoes","category":"vegetables"},{"name":"pasta","category":"grains"}],"expiring_soon":["tomatoes"]}`, nil
	case strings.Contains(prompt, "Create a creative"):
		return `{"name":"Tomato Pasta","cuisine":"Italian","ingredients":[{"name":"tomatoes"},{"name":"pasta"}],"instructions":["Boil pasta","Add tomatoes"]}`, nil
	}
	return "", errors.New("model unavailable")
})

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func sqliteConfig(t *testing.T) string {
	return writeConfig(t, fmt.Sprintf(`
log:
  level: error
metrics:
  enabled: false
storage:
  type: sqlite
  sqlite:
    path: %s
`, filepath.Join(t.TempDir(), "pantry.db")))
}

// run executes the root command with a fresh cli and returns stdout.
func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	c := &cli{provider: kitchen, logWriter: io.Discard}
	root := newRootCmd(c)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestOverrides(t *testing.T) {
	c := &cli{port: 9090, logLevel: "debug", storage: "memory", namespace: "alice", deployment: "health_insights"}
	assert.Equal(t, map[string]any{
		"server.port":      9090,
		"log.level":        "debug",
		"storage.type":     "memory",
		"agent.namespace":  "alice",
		"agent.deployment": "health_insights",
	}, c.overrides())

	assert.Empty(t, (&cli{}).overrides())
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, context.Background(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pantryplay "), out)

	out, err = run(t, context.Background(), "version", "--json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "go_version")
}

func TestSetup_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "storage:\n  type: floppy\n")
	_, err := run(t, context.Background(), "--config", path, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestSetup_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PANTRYPLAY_AGENT__NAMESPACE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PANTRYPLAY_AGENT__NAMESPACE") })

	c := &cli{envFile: envFile, storage: "memory", logWriter: io.Discard}
	require.NoError(t, c.setup())
	assert.Equal(t, "from-dotenv", c.cfg.Agent.Namespace)

	missing := &cli{envFile: filepath.Join(dir, "missing.env"), storage: "memory", logWriter: io.Discard}
	assert.NoError(t, missing.setup())
}

func TestAskThenStats(t *testing.T) {
	ctx := context.Background()
	path := sqliteConfig(t)

	out, err := run(t, ctx, "--config", path, "ask", "What can I make with tomatoes and pasta?")
	require.NoError(t, err)

	var resp struct {
		Success        bool                       `json:"success"`
		TotalTasks     int                        `json:"total_tasks"`
		TasksCompleted int                        `json:"tasks_completed"`
		Summary        string                     `json:"summary"`
		Results        map[string]json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalTasks)
	assert.Equal(t, 2, resp.TasksCompleted)
	assert.Contains(t, resp.Results, "generate_recipe")

	// A second process sees what the first remembered.
	out, err = run(t, ctx, "--config", path, "stats", "--kind", "recipe_history")
	require.NoError(t, err)

	var report profileReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "default", report.Namespace)
	assert.Equal(t, 1, report.Stats.RecipesCooked)
	assert.Len(t, report.Entries, 1)
	require.NotNil(t, report.Patterns)
	assert.Equal(t, memory.TrendInsufficientData, report.Patterns.WasteTrend)

	// Profiles are isolated by namespace.
	out, err = run(t, ctx, "--config", path, "--namespace", "bob", "stats")
	require.NoError(t, err)
	report = profileReport{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0, report.Stats.RecipesCooked)
	assert.NotNil(t, report.Achievements)
}

func TestAsk_Document(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "pantry.md")
	require.NoError(t, os.WriteFile(doc, []byte("# Pantry\n\n- tomatoes\n- pasta\n"), 0o600))

	out, err := run(t, context.Background(), "--storage", "memory", "ask", "--compact", "--file", doc, "What can I cook?")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1, "compact output is one line")
	assert.Contains(t, out, "Tomato Pasta")
}

func TestAsk_HealthInsights(t *testing.T) {
	ctx := context.Background()

	out, err := run(t, ctx, "--storage", "memory", "--deployment", "health_insights", "ask", "Show my glucose trend")
	require.NoError(t, err)

	var resp struct {
		Success bool                       `json:"success"`
		Summary string                     `json:"summary"`
		Results map[string]json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	require.Contains(t, resp.Results, "analyze_trends")
	assert.Contains(t, string(resp.Results["analyze_trends"]), "No historical data available")

	_, err = run(t, ctx, "--storage", "memory", "--deployment", "fitness", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestAsk_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := run(t, ctx, "--storage", "memory", "ask")
	assert.Error(t, err)

	_, err = run(t, ctx, "--storage", "memory", "ask", "   ")
	assert.EqualError(t, err, "request is empty")

	_, err = run(t, ctx, "--storage", "memory", "ask", "--context", "[1,2]", "cook something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --context")

	_, err = run(t, ctx, "--storage", "memory", "ask", "--file", filepath.Join(t.TempDir(), "scan.pdf"), "cook")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, ctx, "--storage", "memory", "stats", "--kind", "snacks")
	assert.ErrorIs(t, err, memory.ErrInvalidKind)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := openStore(context.Background(), config.StorageConfig{Type: "floppy"}, logger.Nop())
	assert.EqualError(t, err, `unknown storage type "floppy"`)
}

func TestMetricsConfig(t *testing.T) {
	mc := metricsConfig(config.MetricsConfig{Enabled: true, Port: 9999, Path: "/m"})
	assert.True(t, mc.Enabled)
	assert.Equal(t, 9999, mc.Port)
	assert.Equal(t, "/m", mc.Path)
	assert.NotEmpty(t, mc.TaskDurationBuckets)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServe(t *testing.T) {
	port := freePort(t)
	path := writeConfig(t, fmt.Sprintf(`
log:
  level: error
metrics:
  enabled: false
storage:
  type: memory
server:
  host: 127.0.0.1
  port: %d
`, port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := run(t, ctx, "--config", path, "serve")
		done <- err
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	body := strings.NewReader(`{"input":"What can I make with tomatoes and pasta?"}`)
	resp, err := http.Post(base+"/api/v1/agent/process", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
