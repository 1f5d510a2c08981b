package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/hosttree"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/telemetry"
)

type renderOptions struct {
	minify   bool
	outer    bool
	stats    bool
	output   string
	snapshot string
}

func renderCmd(c *cli) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Render markup files into one container",
		Long: `Render one or more HTML files in sequence into the same container and
print the resulting markup.

Each file must have a single root element. Later files are reconciled
against the tree left by earlier ones, so --stats shows how many host
mutations each pass needed.

Examples:
  vtree render page.html
  vtree render --stats v1.html v2.html
  vtree render --minify --snapshot home page.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("minify") {
				opts.minify = c.cfg.Render.Minify
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.minify, "minify", false, "Minify output (default from config)")
	cmd.Flags().BoolVar(&opts.outer, "outer", false, "Include the container element")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print mutation counts per pass")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write markup to a file instead of stdout")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Save the result as a named snapshot")

	return cmd
}

func (c *cli) runRender(ctx context.Context, stdout, stderr io.Writer, files []string, opts renderOptions) error {
	if len(files) == 0 {
		return errors.New("X001")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tree := hosttree.New()
	root := tree.NewRoot("body")
	r := telemetry.NewRenderer(tree, c.tracingOptions()...)

	for i, file := range files {
		node, err := parseFile(file)
		if err != nil {
			return err
		}
		before := r.Host().Count()
		if err := r.Render(ctx, node, root); err != nil {
			return errors.Classify(err, "V001").WithFile(file)
		}
		n := r.Host().Count() - before
		c.logger.Debug("rendered", "file", file, "pass", i+1, "mutations", n)
		if opts.stats {
			info(stderr, "pass %d %s: %d mutations, %d nodes", i+1, file, n, telemetry.CountNodes(node))
		}
	}
	if opts.stats {
		info(stderr, "total: %d mutations, %d live host nodes", r.Host().Count(), tree.Len())
	}

	out, err := snapshot.Capture(tree, root, snapshot.CaptureOptions{Inner: !opts.outer, Minify: opts.minify})
	if err != nil {
		return errors.New("M001").Wrap(err)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, out, 0644); err != nil {
			return errors.Newf(errors.CategoryCLI, "write %s", opts.output).Wrap(err)
		}
		c.success(stderr, "Wrote %s (%d bytes)", opts.output, len(out))
	} else {
		fmt.Fprintln(stdout, string(out))
	}

	if opts.snapshot != "" {
		store, err := openStore(c.cfg)
		if err != nil {
			return err
		}
		saved, err := store.Save(ctx, opts.snapshot, bytes.NewReader(out))
		if err != nil {
			return errors.Classify(err, "S004")
		}
		c.success(stderr, "Saved snapshot %s (%d bytes)", saved.Name, saved.Size)
	}
	return nil
}

// tracingOptions returns the renderer options selected by the config.
func (c *cli) tracingOptions() []telemetry.TracingOption {
	if c.cfg == nil || !c.cfg.Tracing.Enabled || c.cfg.Tracing.TracerName == "" {
		return nil
	}
	return []telemetry.TracingOption{telemetry.WithTracerName(c.cfg.Tracing.TracerName)}
}
