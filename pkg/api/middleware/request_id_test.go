package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string // empty means a fresh UUID
	}{
		{name: "missing header", header: ""},
		{name: "blank header", header: "   "},
		{name: "overlong header", header: strings.Repeat("x", maxRequestIDLength+1)},
		{name: "caller id kept", header: "batch-7f3a", want: "batch-7f3a"},
		{name: "caller id trimmed", header: "  batch-7f3a\t", want: "batch-7f3a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/process", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.want == "" {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
}
