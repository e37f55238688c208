package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pantryplay/pantryplay/pkg/logger"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		handlerBody   string
		wantLevel     string
	}{
		{
			name:          "successful GET request",
			method:        http.MethodGet,
			path:          "/api/v1/memory/stats",
			handlerStatus: http.StatusOK,
			handlerBody:   `{"recipes_cooked":0}`,
			wantLevel:     "INFO",
		},
		{
			name:          "bad request",
			method:        http.MethodPost,
			path:          "/api/v1/agent/process",
			handlerStatus: http.StatusBadRequest,
			handlerBody:   `{"error":"bad"}`,
			wantLevel:     "WARN",
		},
		{
			name:          "server error",
			method:        http.MethodGet,
			path:          "/api/v1/memory/patterns",
			handlerStatus: http.StatusInternalServerError,
			handlerBody:   `{"error":"boom"}`,
			wantLevel:     "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(&logger.Config{
				Level:  logger.InfoLevel,
				Format: "json",
				Writer: &buf,
			})

			handler := RequestID()(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				w.Write([]byte(tt.handlerBody))
			})))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Logger middleware status = %v, want %v", w.Code, tt.handlerStatus)
			}
			if w.Body.String() != tt.handlerBody {
				t.Errorf("Logger middleware body = %v, want %v", w.Body.String(), tt.handlerBody)
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry["level"], tt.wantLevel)
			}
			if entry["path"] != tt.path {
				t.Errorf("path = %v, want %v", entry["path"], tt.path)
			}
			if entry["request_id"] != "req-1" {
				t.Errorf("request_id = %v, want req-1", entry["request_id"])
			}
			if entry["size"] != float64(len(tt.handlerBody)) {
				t.Errorf("size = %v, want %d", entry["size"], len(tt.handlerBody))
			}
		})
	}
}
