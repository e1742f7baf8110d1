package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/stream"
)

// dispatcherContext names this component in ApplicationError events.
const dispatcherContext = "Dispatcher"

// Middleware wraps command handler execution. Middlewares run in registration
// order around every dispatched command.
type Middleware func(next ExecFunc) ExecFunc

// ExecFunc is the command execution signature middleware wraps.
type ExecFunc func(ctx context.Context, cmd event.Command) error

// Dispatcher routes ExecuteCommand/ExecuteQuery events to their registered
// handler and publishes the matching completion event. Routing failures
// surface as ApplicationError events; the completion is how callers learn a
// request was fully processed, independent of its business outcome.
//
// Each request runs on its own goroutine, so independent requests interleave
// while one awaits ledger I/O. The dispatcher never retries or times out a
// handler: a hung handler hangs its correlation forever. That is a known
// limitation, kept to hold the one-completion-per-request invariant simple.
type Dispatcher struct {
	stream   *stream.Stream
	registry *Registry
	logger   *slog.Logger
	mw       []Middleware

	mu      sync.Mutex
	subs    []*stream.Subscription
	started bool

	wg sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCommandMiddleware registers global command middleware.
func WithCommandMiddleware(mw ...Middleware) Option {
	return func(d *Dispatcher) { d.mw = append(d.mw, mw...) }
}

// New constructs a Dispatcher. It does not consume until Start is called.
func New(s *stream.Stream, registry *Registry, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := &Dispatcher{stream: s, registry: registry, logger: logger}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start subscribes to the command and query request streams. The two
// subscriptions are independent; ordering is only guaranteed within each.
// ctx is the base context handed to every handler invocation.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}

	d.started = true
	d.subs = append(d.subs,
		d.stream.Subscribe(stream.KindOf(event.KindExecuteCommand), func(e event.Event) {
			ev, ok := e.(event.ExecuteCommand)
			if !ok || !d.begin() {
				return
			}

			go d.dispatchCommand(ctx, ev)
		}),
		d.stream.Subscribe(stream.KindOf(event.KindExecuteQuery), func(e event.Event) {
			ev, ok := e.(event.ExecuteQuery)
			if !ok || !d.begin() {
				return
			}

			go d.dispatchQuery(ctx, ev)
		}),
	)
}

// begin claims a waitgroup slot for one request. It refuses once Stop has
// run, so a delivery already in flight inside the stream when Stop
// unsubscribed is dropped instead of racing wg.Add against wg.Wait.
func (d *Dispatcher) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return false
	}

	d.wg.Add(1)

	return true
}

// Stop unsubscribes and waits for in-flight requests to finish. Requests the
// stream delivers after Stop are dropped, not handled late.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	for _, sub := range d.subs {
		sub.Unsubscribe()
	}

	d.subs = nil
	d.started = false
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, ev event.ExecuteCommand) {
	defer d.wg.Done()

	name := ev.Command.CommandName()

	defer func() {
		if r := recover(); r != nil {
			// an uncaught fault here would silently stop future dispatch
			d.logger.Error("command handler panicked", "command", name, "panic", r)
			d.publish(event.NewApplicationError(dispatcherContext,
				fmt.Sprintf("panic handling command %s: %v", name, r)))
		}
	}()

	d.logger.Debug("received command event", "command", name, "correlation_id", ev.CorrelationID)

	h, ok := d.registry.Command(name)
	if !ok {
		err := fmt.Errorf("no handler registered for command %s: %w", name, berr.ErrHandlerNotFound)
		d.publish(event.NewApplicationError(dispatcherContext, err.Error()))

		return
	}

	exec := ExecFunc(h.Execute)
	for i := len(d.mw) - 1; i >= 0; i-- {
		exec = d.mw[i](exec)
	}

	if err := exec(ctx, ev.Command); err != nil {
		d.publish(event.NewApplicationError(dispatcherContext,
			fmt.Sprintf("command %s: %v", name, err)))
	}

	// completion means "fully processed", not "succeeded"
	d.publish(event.NewCommandExecuted(name, ev.CorrelationID))
}

func (d *Dispatcher) dispatchQuery(ctx context.Context, ev event.ExecuteQuery) {
	defer d.wg.Done()

	name := ev.Query.QueryName()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("query handler panicked", "query", name, "panic", r)
			d.publish(event.NewApplicationError(dispatcherContext,
				fmt.Sprintf("panic handling query %s: %v", name, r)))
		}
	}()

	d.logger.Debug("received query event", "query", name, "correlation_id", ev.CorrelationID)

	h, ok := d.registry.Query(name)
	if !ok {
		err := fmt.Errorf("no handler registered for query %s: %w", name, berr.ErrHandlerNotFound)
		d.publish(event.NewApplicationError(dispatcherContext, err.Error()))

		return
	}

	result, err := h.Execute(ctx, ev.Query)
	if err != nil {
		d.publish(event.NewApplicationError(dispatcherContext,
			fmt.Sprintf("query %s: %v", name, err)))

		result = nil
	}

	d.publish(event.NewQueryExecuted(name, ev.CorrelationID, result))
}

func (d *Dispatcher) publish(e event.Event) {
	if err := d.stream.Publish(e); err != nil {
		d.logger.Error("publish failed", "kind", e.EventKind(), "err", err)
	}
}
