package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/trellis/pkg/metrics"
	"github.com/vango-dev/trellis/pkg/reconcile"
)

// Render expands the root component, reconciles the result against the
// last committed snapshot and commits what the DOM now reflects. Passes
// never interleave.
//
// On error the DOM may be partially patched and the previous snapshot is
// kept. A panic in a component's View propagates to the caller.
func (a *App) Render(ctx context.Context) (reconcile.Stats, error) {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()

	prevState := a.State()
	a.state.Store(int32(StateRendering))
	defer a.state.Store(int32(prevState))

	ctx, span := a.tracer.Start(ctx, "trellis.render",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	start := time.Now()
	stats, err := a.render(ctx)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.Int("trellis.mutations", stats.Mutations()),
		attribute.Int("trellis.lookup_failures", stats.Failures),
		attribute.Int("trellis.components", a.registry.Len()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.metrics.ObserveRender(metrics.StatusError, elapsed)
		a.logger.Error("render failed", "error", err, "duration", elapsed)
		return stats, err
	}
	span.SetStatus(codes.Ok, "")
	a.metrics.ObserveRender(metrics.StatusOK, elapsed)

	a.logger.Debug("render",
		"mutations", stats.Mutations(),
		"failures", stats.Failures,
		"components", a.registry.Len(),
		"duration", elapsed)
	return stats, nil
}

// render runs one pass. a.renderMu must be held.
func (a *App) render(ctx context.Context) (reconcile.Stats, error) {
	exp, err := a.expander.ExpandRoot(a.root, nil)
	if err != nil {
		return reconcile.Stats{}, err
	}

	applied, stats, err := a.reconciler.Patch(ctx, exp.Root, a.snapshot.Load())
	if err != nil {
		return stats, err
	}
	// Abandoned branches keep their previous subtree in the snapshot, so the
	// next pass retries them.
	a.snapshot.Store(applied)

	if stats.Failures > 0 {
		// Kept subtrees may still hold listeners owned by departed
		// components.
		a.logger.Debug("registry sweep skipped", "failures", stats.Failures)
	} else if a.collect {
		if swept := a.registry.Retain(exp.Live); swept > 0 {
			a.metrics.RecordSwept(swept)
			a.logger.Debug("registry swept", "removed", swept)
		}
	}
	a.metrics.SetComponents(a.registry.Len())
	return stats, nil
}
