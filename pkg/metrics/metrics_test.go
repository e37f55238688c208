package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	m := NewManager(DefaultConfig())
	require.NotNil(t, m)
	assert.True(t, m.Enabled())
}

func TestNewManager_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	m := NewManager(cfg)
	require.NotNil(t, m)
	assert.False(t, m.Enabled())
}

func TestMetricsHandler(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.RecordBatch(BatchSucceeded, 2, 3*time.Second)
	m.RecordBatch(BatchEmpty, 0, time.Millisecond)
	m.RecordTaskExecution("generate_recipe", "ok", 2*time.Second)
	m.RecordTaskExecution("generate_recipe", "failed", time.Second)
	m.RecordMemoryStore("recipe_history", true)
	m.RecordLLMRequest("openai", false, 500*time.Millisecond)
	m.RecordHTTPRequest(context.Background(), "POST", "/api/v1/agent/process", "200", 3*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, metric := range []string{
		"agent_batches_total",
		"agent_batch_duration_seconds",
		"agent_batch_tasks",
		"task_executions_total",
		"task_duration_seconds",
		"memory_stores_total",
		"llm_requests_total",
		"llm_request_duration_seconds",
		"http_requests_total",
	} {
		assert.Contains(t, body, metric)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskExecutions.WithLabelValues("generate_recipe", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues(BatchEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("openai", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.memoryStores.WithLabelValues("recipe_history", "success")))
}

func TestMetricsHandler_Disabled(t *testing.T) {
	m := NoOpManager()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 19191

	m := NewManager(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.StartServer(ctx, cfg.Port, cfg.Path)
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://localhost:19191/metrics")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "go_goroutines"))

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNoOpManager(t *testing.T) {
	m := NoOpManager()
	assert.False(t, m.Enabled())

	// These should not panic
	m.RecordBatch(BatchPartial, 3, time.Second)
	m.RecordTaskExecution("track_waste", "ok", time.Second)
	m.RecordMemoryStore("waste_tracking", false)
	m.RecordLLMRequest("openai", true, time.Second)
	m.RecordHTTPRequest(context.Background(), "GET", "/health", "200", time.Millisecond)
	m.IncActiveConnections()
	m.DecActiveConnections()
	assert.NoError(t, m.StartServer(context.Background(), 0, "/metrics"))
}

func BenchmarkRecordTaskExecution(b *testing.B) {
	m := NewManager(DefaultConfig())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordTaskExecution("generate_recipe", "ok", time.Second)
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	m := NewManager(DefaultConfig())
	ctx := context.Background()
	d := 5 * time.Millisecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordHTTPRequest(ctx, "POST", "/api/v1/agent/process", "200", d)
	}
}
