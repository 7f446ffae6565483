package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/dno/pkg/eventbus"
	"github.com/dukex/dno/pkg/metrics"
	"github.com/dukex/dno/pkg/otelhelper"
	"github.com/dukex/dno/pkg/registry"
	"github.com/dukex/dno/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

type EngineOptions struct {
	ActionTimeout time.Duration
	Tracing       bool
	ServiceName   string
	EventBus      eventbus.EventBus
	Metrics       *metrics.Collector
}

// NewEngine wires an engine over fresh in-memory stores.
func NewEngine(ctx context.Context, logger *slog.Logger, reg *registry.Registry, opts EngineOptions) (*workflow.Engine, error) {
	var tracer trace.Tracer

	if opts.Tracing {
		t, err := otelhelper.NewTracer(ctx, opts.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		tracer = t
	}

	tasks, actions := NewStores()

	return workflow.NewEngine(logger, reg, tasks, actions, workflow.Config{
		ActionTimeout: opts.ActionTimeout,
		EventBus:      opts.EventBus,
		Tracer:        tracer,
		Metrics:       opts.Metrics,
	}), nil
}
