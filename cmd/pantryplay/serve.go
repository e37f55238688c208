package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/api"
	"github.com/pantryplay/pantryplay/pkg/api/handlers"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/metrics"
	"github.com/pantryplay/pantryplay/pkg/telemetry/tracing"
	"github.com/pantryplay/pantryplay/pkg/version"
)

// eventBuffer is the broadcaster queue feeding websocket clients.
const eventBuffer = 256

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(parent context.Context) error {
	cfg, log := c.cfg, c.log

	log.Info("Starting Pantry Play",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, tracing.Service{
		Name:        cfg.App.Name,
		Version:     version.Version,
		Environment: cfg.App.Environment,
	}, log)
	if err != nil {
		return err
	}

	metricsManager := metrics.NewManager(metricsConfig(cfg.Metrics))

	a, err := newApp(ctx, cfg, log, c.provider, metricsManager)
	if err != nil {
		return err
	}
	defer a.Close()

	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	ws := handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		MaxConnections: cfg.Server.WebSocket.MaxConnections,
	})
	go ws.Forward(ctx, a.events.Subscribe(eventBuffer))

	apiHandlers := &api.Handlers{
		Agent:     handlers.NewAgentHandler(a.agent, log, cfg.Server.HTTP.MaxUploadBytes),
		Memory:    handlers.NewMemoryHandler(a.agent, log),
		Health:    handlers.NewHealthHandler(cfg.App.Name, a.memory, a.agent),
		WebSocket: ws,
	}
	if metricsManager.Enabled() {
		apiHandlers.Metrics = metricsManager
	}
	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	if c.configPath != "" {
		stopWatcher := c.watchConfig(ctx, log)
		defer stopWatcher()
	}

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	log.Info("Pantry Play is running",
		"address", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		"storage", cfg.Storage.Type,
		"namespace", cfg.Agent.Namespace,
		"metrics_port", cfg.Metrics.Port,
	)

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case runErr = <-serverErrChan:
		log.Error("HTTP server error", "error", runErr)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}
	cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", "error", err)
	}

	log.Info("Pantry Play stopped gracefully")
	return runErr
}

// watchConfig applies hot-reloadable settings when the config file changes.
func (c *cli) watchConfig(ctx context.Context, log logger.Logger) func() {
	watcher, err := config.NewWatcher(c.configPath, config.NewLoader(), config.WithWatcherLogger(log))
	if err != nil {
		log.Warn("Config watcher disabled", "error", err)
		return func() {}
	}

	var mu sync.Mutex
	current := config.ExtractHotReloadable(c.cfg)
	watcher.OnChange(func(next *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		reloaded := config.ExtractHotReloadable(next)
		if !reloaded.Changed(current) {
			return
		}
		// Flags win over the file.
		if c.logLevel == "" && !c.debug {
			log.SetLevel(logger.ParseLevel(reloaded.LogLevel))
			log.Info("Log level reloaded", "level", reloaded.LogLevel)
		}
		current = reloaded
	})

	go func() {
		if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Config watcher stopped", "error", err)
		}
	}()
	return func() { _ = watcher.Stop() }
}
