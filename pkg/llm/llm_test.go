package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/logger"
)

func newCompletionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
	})
	_, _ = w.Write(body)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"message":"upstream said no","type":"server_error"}}`))
}

func TestOpenAI_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newCompletionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, `{"name":"Pasta"}`)
	})

	p, err := NewOpenAI(OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Model:       "gpt-4o-mini",
		MaxTokens:   100,
		Temperature: 0.5,
		Timeout:     5 * time.Second,
		JSONMode:    true,
	}, logger.Nop())
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "make pasta")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Pasta"}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[0].Role)
	assert.Equal(t, "make pasta", got.Messages[0].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
}

func TestOpenAI_Errors(t *testing.T) {
	t.Run("server error is transient", func(t *testing.T) {
		srv := newCompletionServer(t, func(w http.ResponseWriter, _ *http.Request) {
			writeAPIError(w, http.StatusInternalServerError)
		})
		p, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"}, logger.Nop())
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("bad request is permanent", func(t *testing.T) {
		srv := newCompletionServer(t, func(w http.ResponseWriter, _ *http.Request) {
			writeAPIError(w, http.StatusBadRequest)
		})
		p, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"}, logger.Nop())
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), "hi")
		require.Error(t, err)
		assert.False(t, IsTransient(err))
	})

	t.Run("no choices", func(t *testing.T) {
		srv := newCompletionServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
		})
		p, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"}, logger.Nop())
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), "hi")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("model required", func(t *testing.T) {
		_, err := NewOpenAI(OpenAIConfig{APIKey: "k"}, logger.Nop())
		assert.Error(t, err)
	})
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"empty", ErrEmptyResponse, false},
		{"rate limited", ErrRateLimited, false},
		{"throttled", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"unavailable", &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable}, true},
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"transport", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetrier(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

	t.Run("recovers from transient failures", func(t *testing.T) {
		var calls atomic.Int32
		flaky := ProviderFunc(func(context.Context, string) (string, error) {
			if calls.Add(1) < 3 {
				return "", errors.New("connection reset")
			}
			return "ok", nil
		})

		out, err := NewRetrier(flaky, cfg, logger.Nop()).Complete(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var calls atomic.Int32
		down := ProviderFunc(func(context.Context, string) (string, error) {
			calls.Add(1)
			return "", errors.New("connection refused")
		})

		_, err := NewRetrier(down, cfg, logger.Nop()).Complete(context.Background(), "p")
		require.Error(t, err)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		denied := &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}
		p := ProviderFunc(func(context.Context, string) (string, error) {
			calls.Add(1)
			return "", denied
		})

		_, err := NewRetrier(p, cfg, logger.Nop()).Complete(context.Background(), "p")
		var apiErr *openai.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
		assert.EqualValues(t, 1, calls.Load())
	})
}

func TestRateLimiter(t *testing.T) {
	ok := ProviderFunc(func(context.Context, string) (string, error) { return "ok", nil })

	t.Run("allows burst", func(t *testing.T) {
		rl := NewRateLimiter(ok, 1, 2)
		for i := 0; i < 2; i++ {
			out, err := rl.Complete(context.Background(), "p")
			require.NoError(t, err)
			assert.Equal(t, "ok", out)
		}
	})

	t.Run("context ends while waiting", func(t *testing.T) {
		rl := NewRateLimiter(ok, 0.1, 1)
		_, err := rl.Complete(context.Background(), "p")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = rl.Complete(ctx, "p")
		assert.ErrorIs(t, err, ErrRateLimited)
	})
}

type recordedCall struct {
	provider string
	success  bool
}

type fakeMetrics struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeMetrics) RecordLLMRequest(provider string, success bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{provider, success})
}

func TestInstrumented(t *testing.T) {
	m := &fakeMetrics{}
	fail := true
	p := NewInstrumented(ProviderFunc(func(context.Context, string) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "ok", nil
	}), "openai", m)

	_, err := p.Complete(context.Background(), "p")
	assert.Error(t, err)
	fail = false
	out, err := p.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.Equal(t, []recordedCall{{"openai", false}, {"openai", true}}, m.calls)
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Provider) Provider {
			return ProviderFunc(func(ctx context.Context, prompt string) (string, error) {
				order = append(order, name)
				return next.Complete(ctx, prompt)
			})
		}
	}
	base := ProviderFunc(func(context.Context, string) (string, error) {
		order = append(order, "base")
		return "", nil
	})

	_, _ = Chain(base, tag("outer"), tag("inner")).Complete(context.Background(), "p")
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
}

func TestNewFromConfig(t *testing.T) {
	srv := newCompletionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeCompletion(w, "hello")
	})

	m := &fakeMetrics{}
	p, err := New(config.LLMConfig{
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		APIKey:    "k",
		BaseURL:   srv.URL,
		MaxTokens: 10,
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 100, Burst: 10},
		Retry:     config.RetryConfig{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	}, logger.Nop(), m)
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Len(t, m.calls, 1)

	_, err = New(config.LLMConfig{Provider: "gemini", Model: "x"}, logger.Nop(), nil)
	assert.Error(t, err)
}
