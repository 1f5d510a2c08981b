package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/server"
	"github.com/vango-dev/vtree/pkg/telemetry"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func serveCmd(c *cli) *cobra.Command {
	var (
		addr        string
		maxSessions int
	)

	cmd := &cobra.Command{
		Use:   "serve <file>...",
		Short: "Serve markup files as live sessions",
		Long: `Serve markup files over WebSocket. Every connection gets its own
session that starts on the first page; a click anywhere in the page
advances to the next one and the session streams the mutations.

Files are re-read on every render, so edits show up on the next click.

Endpoints:
  /ws                  live session
  /healthz             liveness and session count
  /metrics             Prometheus metrics (metrics.enabled)
  /snapshots[/{name}]  stored snapshots

Examples:
  vtree serve index.html about.html
  vtree serve --addr :9000 page.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Address = addr
			}
			if cmd.Flags().Changed("max-sessions") {
				c.cfg.Server.MaxSessions = maxSessions
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runServe(ctx, args)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "Maximum concurrent sessions, 0 for no limit")
	return cmd
}

func (c *cli) runServe(ctx context.Context, files []string) error {
	pages, err := loadPages(files, c.logger.With("component", "pages"))
	if err != nil {
		return err
	}

	srv, err := c.newServer(pages)
	if err != nil {
		return err
	}
	c.success(os.Stderr, "Serving %d page(s) on %s", pages.Len(), c.cfg.Server.Address)

	if err := srv.Run(ctx); err != nil {
		return errors.New("S010").Wrap(err)
	}
	return nil
}

// newServer builds the live server from the config.
func (c *cli) newServer(pages *pageSet) (*server.Server, error) {
	cfg := server.DefaultConfig()
	cfg.Address = c.cfg.Server.Address
	cfg.MaxSessions = c.cfg.Server.MaxSessions
	cfg.MaxMessageSize = c.cfg.Server.MaxMessageSize
	cfg.ReadTimeout = c.cfg.ReadTimeout()
	cfg.WriteTimeout = c.cfg.WriteTimeout()
	cfg.ShutdownTimeout = c.cfg.ShutdownTimeout()

	opts := []server.Option{
		server.WithLogger(c.logger.With("component", "server")),
	}

	if c.cfg.Metrics.IsEnabled() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := telemetry.NewMetrics(
			telemetry.WithNamespace(c.cfg.Metrics.Namespace),
			telemetry.WithRegistry(reg),
		)
		opts = append(opts, server.WithMetrics(m, reg))
	}
	if tracing := c.tracingOptions(); len(tracing) > 0 {
		opts = append(opts, server.WithTracing(tracing...))
	}

	store, err := openStore(c.cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, server.WithSnapshots(store))

	return server.New(pagesApp(pages), cfg, opts...), nil
}

// pagesApp shows page 0 to a new session; a click on the page root
// advances to the next page.
func pagesApp(pages *pageSet) server.App {
	return func(s *server.Session) server.View {
		current := 0
		next := func() {
			current = (current + 1) % pages.Len()
		}
		return func() *vdom.VNode {
			node := pages.Load(current)
			if node.Props == nil {
				node.Props = vdom.Props{}
			}
			node.Props[vdom.EventPrefix+"click"] = next
			return node
		}
	}
}
