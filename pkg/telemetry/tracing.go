package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// DefaultTracerName is the instrumentation name used when none is set.
const DefaultTracerName = "github.com/vango-dev/vtree"

// TracingConfig configures render tracing.
type TracingConfig struct {
	// TracerName is passed to otel.Tracer when Tracer is nil.
	TracerName string

	// Tracer overrides the global tracer provider.
	Tracer trace.Tracer

	// Metrics receives render and mutation metrics. May be nil.
	Metrics *Metrics

	// RendererOptions are passed to vdom.NewRenderer.
	RendererOptions []vdom.Option
}

// TracingOption configures an instrumented renderer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer instrumentation name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracer sets an explicit tracer.
func WithTracer(t trace.Tracer) TracingOption {
	return func(c *TracingConfig) {
		c.Tracer = t
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) TracingOption {
	return func(c *TracingConfig) {
		c.Metrics = m
	}
}

// WithRendererOptions forwards options to the underlying vdom.Renderer.
func WithRendererOptions(opts ...vdom.Option) TracingOption {
	return func(c *TracingConfig) {
		c.RendererOptions = append(c.RendererOptions, opts...)
	}
}

// Renderer is a vdom.Renderer whose passes are traced, timed and counted.
type Renderer struct {
	renderer *vdom.Renderer
	host     *CountingHost
	metrics  *Metrics
	tracer   trace.Tracer
}

// NewRenderer builds an instrumented renderer writing to host.
func NewRenderer(host vdom.Host, opts ...TracingOption) *Renderer {
	config := TracingConfig{TracerName: DefaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(config.TracerName)
	}

	counting := NewCountingHost(host, config.Metrics)
	return &Renderer{
		renderer: vdom.NewRenderer(counting, config.RendererOptions...),
		host:     counting,
		metrics:  config.Metrics,
		tracer:   tracer,
	}
}

// Unwrap returns the underlying renderer.
func (r *Renderer) Unwrap() *vdom.Renderer {
	return r.renderer
}

// Host returns the counting host decorator the renderer writes through.
func (r *Renderer) Host() *CountingHost {
	return r.host
}

// Render runs one render pass inside a "vtree.render" span.
func (r *Renderer) Render(ctx context.Context, tree *vdom.VNode, container vdom.Handle) error {
	first := r.renderer.Tree(container) == nil
	_, span := r.tracer.Start(ctx, "vtree.render",
		trace.WithAttributes(
			attribute.Int64("vtree.container", int64(container)),
			attribute.Bool("vtree.mount", first),
			attribute.Int("vtree.nodes", CountNodes(tree)),
		),
	)
	defer span.End()

	before := r.host.Count()
	start := time.Now()
	err := r.renderer.Render(tree, container)
	r.metrics.ObserveRender(time.Since(start), err)

	span.SetAttributes(attribute.Int64("vtree.mutations", r.host.Count()-before))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// CountNodes returns the number of element and text nodes in tree.
func CountNodes(tree *vdom.VNode) int {
	if tree == nil {
		return 0
	}
	n := 1 + CountNodes(tree.Child)
	for _, child := range tree.Children {
		n += CountNodes(child)
	}
	return n
}
