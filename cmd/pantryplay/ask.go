package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pantryplay/pantryplay/pkg/task"
)

type askOptions struct {
	file    string
	context string
	compact bool
}

func newAskCmd(c *cli) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <request>",
		Short: "Process one request and print the response as JSON",
		Example: `  pantryplay ask "What can I cook with tomatoes and pasta?"
  pantryplay ask --file receipt.txt "Make me a shopping list"
  pantryplay ask --context '{"mood":"cozy","weather":"rainy"}' "Suggest something for my mood"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.ask(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Text or Markdown document to attach (receipt, pantry list)")
	cmd.Flags().StringVar(&opts.context, "context", "", "JSON object merged into the request context")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print compact JSON")
	return cmd
}

func (c *cli) ask(ctx context.Context, out io.Writer, input string, opts *askOptions) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errors.New("request is empty")
	}

	tctx := task.Context{}
	if opts.context != "" {
		if err := json.Unmarshal([]byte(opts.context), &tctx); err != nil {
			return fmt.Errorf("invalid --context: %w", err)
		}
	}

	a, err := newApp(ctx, c.cfg, c.log, c.provider, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var resp any
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return err
		}
		defer f.Close()

		resp, err = a.agent.ProcessDocument(ctx, input, filepath.Base(opts.file), f, tctx)
		if err != nil {
			return err
		}
	} else {
		resp = a.agent.ProcessInput(ctx, input, tctx)
	}
	return writeJSON(out, resp, !opts.compact)
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
