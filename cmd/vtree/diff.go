package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/hosttree"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/telemetry"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func diffCmd(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Print the mutations that turn one page into another",
		Long: `Render <before>, then reconcile <after> against it and print the
host mutations of the second pass.

Handles are those of an in-memory host where the container is #1.

Examples:
  vtree diff v1.html v2.html
  vtree diff --format json v1.html v2.html`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("X001").WithDetail("diff needs exactly two markup files")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiff(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

// diffMutation is the JSON form of one mutation.
type diffMutation struct {
	Op     string      `json:"op"`
	Node   vdom.Handle `json:"node"`
	Parent vdom.Handle `json:"parent,omitempty"`
	Ref    vdom.Handle `json:"ref,omitempty"`
	Name   string      `json:"name,omitempty"`
	Value  string      `json:"value,omitempty"`
}

func (c *cli) runDiff(ctx context.Context, w io.Writer, before, after, format string) error {
	if format != "text" && format != "json" {
		return errors.Newf(errors.CategoryCLI, "unknown format %q", format).
			WithSuggestion("Use one of: text, json")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	muts, err := c.diff(ctx, before, after)
	if err != nil {
		return err
	}

	if format == "json" {
		out := make([]diffMutation, len(muts))
		for i, m := range muts {
			out[i] = diffMutation{Op: m.Op.String(), Node: m.Node, Parent: m.Parent, Ref: m.Ref, Name: m.Name, Value: m.Value}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	counts := map[string]int{}
	for _, m := range muts {
		fmt.Fprintln(w, m.String())
		counts[m.Op.String()]++
	}
	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	fmt.Fprintf(w, "\n%d mutations", len(muts))
	for _, op := range ops {
		fmt.Fprintf(w, ", %s %d", op, counts[op])
	}
	fmt.Fprintln(w)
	return nil
}

// diff renders before, then returns the mutations recorded while
// reconciling after against it.
func (c *cli) diff(ctx context.Context, before, after string) ([]protocol.Mutation, error) {
	prev, err := parseFile(before)
	if err != nil {
		return nil, err
	}
	next, err := parseFile(after)
	if err != nil {
		return nil, err
	}

	tree := hosttree.New()
	root := tree.NewRoot("body")
	recorder := protocol.NewRecorder(tree)
	r := telemetry.NewRenderer(recorder, c.tracingOptions()...)

	if err := r.Render(ctx, prev, root); err != nil {
		return nil, errors.Classify(err, "V001").WithFile(before)
	}
	recorder.Take()
	if err := r.Render(ctx, next, root); err != nil {
		return nil, errors.Classify(err, "V001").WithFile(after)
	}
	return recorder.Take(), nil
}
