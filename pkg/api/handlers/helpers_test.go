package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pantryplay/pantryplay/pkg/agent"
	"github.com/pantryplay/pantryplay/pkg/executor"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/memory"
	"github.com/pantryplay/pantryplay/pkg/storage"
	memstore "github.com/pantryplay/pantryplay/pkg/storage/memory"
	"github.com/pantryplay/pantryplay/pkg/task"
)

// stubExecutor answers every task with a raw response unless told to fail
// a kind. It keeps the params of every task it ran.
type stubExecutor struct {
	mu     sync.Mutex
	fail   map[task.Kind]error
	seen   []task.Kind
	params map[task.Kind]task.Params
}

func (s *stubExecutor) Execute(_ context.Context, t *task.Task) (task.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, t.Kind)
	s.params[t.Kind] = t.Params
	if err := s.fail[t.Kind]; err != nil {
		return nil, err
	}
	return &executor.RawResponse{Text: "done"}, nil
}

// downStore fails every call as an unreachable backend would.
type downStore struct {
	storage.Store
}

func (downStore) Ping(context.Context) error {
	return &storage.StorageUnavailableError{Cause: errors.New("connection refused")}
}

func (downStore) Put(context.Context, string, []byte) error {
	return &storage.StorageUnavailableError{Cause: errors.New("connection refused")}
}

func newTestAgent(t *testing.T, store storage.Store) (*agent.Agent, *stubExecutor) {
	t.Helper()
	if store == nil {
		store = memstore.New()
	}
	mem, err := memory.New(context.Background(), store, memory.WithLogger(logger.Nop()))
	require.NoError(t, err)
	exec := &stubExecutor{fail: map[task.Kind]error{}, params: map[task.Kind]task.Params{}}
	a, err := agent.New(exec, mem, agent.WithLogger(logger.Nop()))
	require.NoError(t, err)
	return a, exec
}

func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
