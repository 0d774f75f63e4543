package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	terrors "github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/metrics"
	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/reconcile"
	"github.com/vango-dev/trellis/pkg/registry"
)

// Dispatch delivers msg to the component at p and re-renders.
//
// A missing component is a lookup failure: it is logged and returned
// without rendering. A message of the wrong type, or any panic in Update,
// propagates to the caller; the component is poisoned afterwards.
func (a *App) Dispatch(ctx context.Context, p path.Path, msg any) error {
	ctx, span := a.tracer.Start(ctx, "trellis.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("trellis.path", p.String()),
			attribute.String("trellis.msg_type", fmt.Sprintf("%T", msg)),
		),
	)
	defer span.End()

	err := a.dispatch(ctx, p, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (a *App) dispatch(ctx context.Context, p path.Path, msg any) error {
	h, err := a.registry.Get(p)
	if err != nil {
		a.metrics.RecordDispatch(metrics.StatusNotFound)
		a.logger.Warn("dispatch target not found", "path", p.String(), "error", err)
		return err
	}

	a.state.Store(int32(StateDispatching))
	defer a.state.Store(int32(StateIdle))

	if err := h.Update(msg); err != nil {
		a.metrics.RecordDispatch(metrics.StatusError)
		a.logger.Warn("dispatch rejected", "path", p.String(), "error", err)
		return err
	}
	a.metrics.RecordDispatch(metrics.StatusOK)

	_, err = a.Render(ctx)
	return err
}

// Post queues msg for the component at p. It never blocks: ErrQueueFull is
// returned when the queue is at capacity and ErrClosed after Close.
// Messages are processed by Run.
func (a *App) Post(p path.Path, msg any) error {
	if a.closed.Load() {
		return ErrClosed
	}
	select {
	case a.messages <- message{path: p, msg: msg}:
		return nil
	default:
		a.logger.Warn("message queue full, dropping message", "path", p.String())
		return ErrQueueFull
	}
}

// Run renders once and then processes posted messages, one dispatch and
// one render at a time, until ctx is done or Close is called. A panic while
// handling a message is logged and the loop continues.
//
// While Run is active, DOM listeners post their messages instead of
// dispatching them synchronously.
func (a *App) Run(ctx context.Context) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if !a.running.CompareAndSwap(false, true) {
		return terrors.Newf(terrors.CategoryRuntime, "app is already running")
	}
	defer a.running.Store(false)

	if _, err := a.safeRender(ctx); err != nil {
		return err
	}

	for {
		select {
		case m := <-a.messages:
			a.handleMessage(ctx, m)

		case <-ctx.Done():
			return ctx.Err()

		case <-a.done:
			return nil
		}
	}
}

// handleMessage dispatches one queued message with panic recovery.
func (a *App) handleMessage(ctx context.Context, m message) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			a.metrics.RecordDispatch(metrics.StatusPanic)
			a.logger.Error("dispatch panic",
				"panic", r,
				"path", m.path.String(),
				"msg_type", fmt.Sprintf("%T", m.msg),
				"stack", string(stack))
		}
	}()

	if err := a.Dispatch(ctx, m.path, m.msg); err != nil && !errors.Is(err, registry.ErrNotFound) {
		a.logger.Warn("dispatch failed", "path", m.path.String(), "error", err)
	}
}

// safeRender renders with panic recovery, turning a panic into an error.
func (a *App) safeRender(ctx context.Context) (stats reconcile.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			a.logger.Error("render panic", "panic", r, "stack", string(stack))
			err = terrors.Newf(terrors.CategoryRuntime, "render panic: %v", r)
		}
	}()
	return a.Render(ctx)
}

// deliver receives messages from DOM listeners.
func (a *App) deliver(owner path.Path, msg any) {
	if a.running.Load() {
		if err := a.Post(owner, msg); errors.Is(err, ErrClosed) {
			a.logger.Warn("listener message dropped", "path", owner.String(), "error", err)
		}
		return
	}
	if err := a.Dispatch(context.Background(), owner, msg); err != nil {
		a.logger.Warn("listener dispatch failed", "path", owner.String(), "error", err)
	}
}
