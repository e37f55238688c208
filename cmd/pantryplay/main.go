// Command pantryplay runs the Pantry Play culinary agent as an HTTP service
// or answers one request from the command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/llm"
	"github.com/pantryplay/pantryplay/pkg/logger"
)

// cli carries the global flags and the state prepared before any
// subcommand runs.
type cli struct {
	configPath string
	envFile    string
	port       int
	logLevel   string
	storage    string
	namespace  string
	deployment string
	debug      bool

	cfg *config.Config
	log logger.Logger

	// provider replaces the configured LLM backend when set.
	provider llm.Provider
	// logWriter overrides the configured log output when set.
	logWriter io.Writer
}

func main() {
	if err := newRootCmd(&cli{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "pantryplay",
		Short: "Culinary agent for pantry analysis, recipes, shopping and waste tracking",
		Long: "Pantry Play turns free-text cooking requests into planned tasks, runs them " +
			"against an LLM and remembers the results per user profile.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = c.log.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to configuration file")
	flags.StringVar(&c.envFile, "env-file", ".env", "Dotenv file loaded before the configuration")
	flags.IntVar(&c.port, "port", 0, "Override server port")
	flags.StringVar(&c.logLevel, "log-level", "", "Override log level")
	flags.StringVar(&c.storage, "storage", "", "Override storage backend (memory, badger, redis, sqlite)")
	flags.StringVar(&c.namespace, "namespace", "", "Override the user profile namespace")
	flags.StringVar(&c.deployment, "deployment", "", "Override the deployment (pantry_play, health_insights)")
	flags.BoolVar(&c.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(c),
		newAskCmd(c),
		newStatsCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads the dotenv file, the configuration and the logger.
func (c *cli) setup() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}

	cfg, err := config.Load(c.configPath, c.overrides())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Writer: c.logWriter,
	}
	if c.debug {
		logCfg.Level = logger.DebugLevel
	}
	c.log = logger.New(logCfg)
	logger.SetGlobal(c.log)
	c.cfg = cfg

	c.log.Debug("Configuration loaded", "config", cfg.String())
	return nil
}

func (c *cli) overrides() map[string]any {
	overrides := make(map[string]any)

	if c.port != 0 {
		overrides["server.port"] = c.port
	}
	if c.logLevel != "" {
		overrides["log.level"] = c.logLevel
	}
	if c.storage != "" {
		overrides["storage.type"] = c.storage
	}
	if c.namespace != "" {
		overrides["agent.namespace"] = c.namespace
	}
	if c.deployment != "" {
		overrides["agent.deployment"] = c.deployment
	}
	return overrides
}
