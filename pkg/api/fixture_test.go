package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/agent"
	"github.com/pantryplay/pantryplay/pkg/api/events"
	"github.com/pantryplay/pantryplay/pkg/api/handlers"
	"github.com/pantryplay/pantryplay/pkg/executor"
	"github.com/pantryplay/pantryplay/pkg/llm"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/memory"
	memstore "github.com/pantryplay/pantryplay/pkg/storage/memory"
)

// kitchen answers the pantry and recipe prompts; everything else fails.
var kitchen = llm.ProviderFunc(func(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "taking stock of a pantry"):
		return `{"ingredients":[{"name":"tomatoes","category":"vegetables"},{"name":"pasta","category":"grains"}],"expiring_soon":["tomatoes"]}`, nil
	case strings.Contains(prompt, "Create a creative"):
		return `{"name":"Tomato Pasta","cuisine":"Italian","ingredients":[{"name":"tomatoes"},{"name":"pasta"}],"instructions":["Boil pasta","Add tomatoes"]}`, nil
	}
	return "", errors.New("model unavailable")
})

type fixture struct {
	cfg         *config.Config
	memory      *memory.Memory
	agent       *agent.Agent
	broadcaster *events.Broadcaster
	handlers    *Handlers
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	log := logger.Nop()

	mem, err := memory.New(context.Background(), memstore.New(), memory.WithLogger(log))
	require.NoError(t, err)

	broadcaster := events.NewBroadcaster()
	exec := executor.New(kitchen, executor.WithLogger(log))
	a, err := agent.New(exec, mem, agent.WithLogger(log), agent.WithEvents(broadcaster))
	require.NoError(t, err)

	ws := handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		MaxConnections: cfg.Server.WebSocket.MaxConnections,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go ws.Forward(ctx, broadcaster.Subscribe(64))
	t.Cleanup(func() {
		cancel()
		ws.Close()
		broadcaster.Close()
	})

	return &fixture{
		cfg:         cfg,
		memory:      mem,
		agent:       a,
		broadcaster: broadcaster,
		handlers: &Handlers{
			Agent:     handlers.NewAgentHandler(a, log, cfg.Server.HTTP.MaxUploadBytes),
			Memory:    handlers.NewMemoryHandler(a, log),
			Health:    handlers.NewHealthHandler(cfg.App.Name, mem, a),
			WebSocket: ws,
		},
	}
}
