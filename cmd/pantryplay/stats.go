package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/pantryplay/pantryplay/pkg/memory"
)

type statsOptions struct {
	kind  string
	limit int
}

// profileReport is what stats prints for a namespace.
type profileReport struct {
	Namespace    string               `json:"namespace"`
	Stats        memory.Stats         `json:"stats"`
	Achievements []memory.Achievement `json:"achievements"`
	Preferences  map[string]any       `json:"preferences"`
	Patterns     *memory.Patterns     `json:"patterns"`
	Entries      []memory.Entry       `json:"entries,omitempty"`
}

func newStatsCmd(c *cli) *cobra.Command {
	opts := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the stored profile: stats, achievements, preferences and patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.stats(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Also list the newest entries of this memory kind")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Entries listed with --kind")
	return cmd
}

func (c *cli) stats(ctx context.Context, out io.Writer, opts *statsOptions) error {
	var kind memory.Kind
	if opts.kind != "" {
		k, err := memory.ParseKind(opts.kind)
		if err != nil {
			return err
		}
		kind = k
	}

	a, err := newApp(ctx, c.cfg, c.log, c.provider, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	patterns, err := a.agent.Patterns(ctx)
	if err != nil {
		return err
	}

	report := profileReport{
		Namespace:    c.cfg.Agent.Namespace,
		Stats:        a.agent.Stats(),
		Achievements: a.agent.Achievements(),
		Preferences:  a.agent.Preferences(),
		Patterns:     patterns,
	}
	if report.Achievements == nil {
		report.Achievements = []memory.Achievement{}
	}
	if report.Preferences == nil {
		report.Preferences = map[string]any{}
	}
	if kind != "" {
		entries, err := a.agent.History(ctx, kind, opts.limit)
		if err != nil {
			return err
		}
		report.Entries = entries
	}
	return writeJSON(out, report, true)
}
