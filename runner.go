package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/ircflow/ircbot"

// Handler reacts to one event. Handlers run on the single dispatch
// goroutine: one that blocks stalls all other dispatch, so long-running
// work must be handed off.
type Handler func(ctx context.Context, e Event) error

type binding struct {
	pattern string
	plugin  string
	fn      Handler
}

// runner is the event bus: it holds the handler bindings, fixed before
// the session starts, and a single dispatch goroutine that fans each
// event out to every matching binding in registration order.
//
// Events published by a handler are appended to the queue and processed
// after the current fan-out completes, so all handlers observe events
// in the same causal order.
type runner struct {
	logger *slog.Logger

	mu       sync.Mutex
	bindings []binding
	queue    []Event
	started  bool
	stopped  bool

	wake chan struct{}
	done chan struct{}

	tracer    trace.Tracer
	published metric.Int64Counter
	faults    metric.Int64Counter
}

func newRunner(logger *slog.Logger, enableMetrics, enableTracing bool) *runner {
	r := &runner{
		logger: logger.With("component", "bus"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if enableTracing {
		r.tracer = otel.Tracer(scopeName)
	}
	if enableMetrics {
		meter := otel.Meter(scopeName)
		r.published, _ = meter.Int64Counter("ircbot.events.published",
			metric.WithDescription("Events published to the bus"))
		r.faults, _ = meter.Int64Counter("ircbot.handler.faults",
			metric.WithDescription("Handler invocations that failed or panicked"))
	}
	return r
}

// subscribe adds a binding. Only valid before start: the binding set is
// immutable during dispatch.
func (r *runner) subscribe(pattern, plugin string, fn Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRunning
	}
	r.bindings = append(r.bindings, binding{pattern: pattern, plugin: plugin, fn: fn})
	return nil
}

// publish appends an event to the dispatch queue. Safe from any
// goroutine; events published after shutdown are discarded.
func (r *runner) publish(e Event) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, e)
	r.mu.Unlock()

	if r.published != nil {
		r.published.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("event.type", e.Type)))
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *runner) pop() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return Event{}, false
	}
	e := r.queue[0]
	r.queue = r.queue[1:]
	return e, true
}

// start launches the dispatch goroutine. The loop drains any queued
// events after ctx is cancelled, then exits.
func (r *runner) start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()
	go r.loop(ctx)
}

// wait blocks until the dispatch loop has exited.
func (r *runner) wait() {
	<-r.done
}

func (r *runner) loop(ctx context.Context) {
	defer close(r.done)
	for {
		e, ok := r.pop()
		if !ok {
			select {
			case <-ctx.Done():
				r.mu.Lock()
				r.stopped = true
				r.mu.Unlock()
				return
			case <-r.wake:
				continue
			}
		}
		r.dispatch(ctx, e)
	}
}

// dispatch fans one event out to every matching binding in registration
// order. A failing handler never stops its siblings.
func (r *runner) dispatch(ctx context.Context, e Event) {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, "bus.dispatch",
			trace.WithAttributes(attribute.String("event.type", e.Type)))
		defer span.End()
	}
	for _, b := range r.bindings {
		if !matchPattern(b.pattern, e.Type) {
			continue
		}
		r.invoke(ctx, b, e)
	}
}

func (r *runner) invoke(ctx context.Context, b binding, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panicked",
				"plugin", b.plugin, "event", e.Type, "panic", rec)
			r.countFault(ctx, b.plugin, e.Type)
		}
	}()
	if err := b.fn(ctx, e); err != nil {
		r.logger.Error("handler failed",
			"plugin", b.plugin, "event", e.Type, "error", err)
		r.countFault(ctx, b.plugin, e.Type)
	}
}

func (r *runner) countFault(ctx context.Context, plugin, typ string) {
	if r.faults != nil {
		r.faults.Add(ctx, 1, metric.WithAttributes(
			attribute.String("plugin", plugin),
			attribute.String("event.type", typ),
		))
	}
}

// matchPattern reports whether an event type matches a subscription
// pattern: "*" matches everything, "core.message.*" matches the
// hierarchy under "core.message.", anything else matches exactly.
func matchPattern(pattern, typ string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		return strings.HasPrefix(typ, pattern[:len(pattern)-1])
	}
	return pattern == typ
}
