package dispatch_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/dispatch"
	"github.com/next-trace/scg-ledger-bus/stream"
)

type testCmd struct{ ID string }

func (testCmd) CommandName() string { return "TestCommand" }

type testQry struct{ ID string }

func (testQry) QueryName() string { return "TestQuery" }

type recordingHandler struct {
	mu   sync.Mutex
	seen []event.Command
	err  error
}

func (h *recordingHandler) Execute(ctx context.Context, cmd event.Command) error {
	h.mu.Lock()
	h.seen = append(h.seen, cmd)
	h.mu.Unlock()

	return h.err
}

type panicHandler struct{}

func (panicHandler) Execute(ctx context.Context, cmd event.Command) error {
	panic("boom")
}

type balanceQueryHandler struct{ result any }

func (h balanceQueryHandler) Execute(ctx context.Context, q event.Query) (any, error) {
	return h.result, nil
}

// waitFor pulls one event off ch or fails the test.
func waitFor(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()

	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")

		return nil
	}
}

func subscribeKind(s *stream.Stream, k event.Kind) <-chan event.Event {
	ch := make(chan event.Event, 16)
	s.Subscribe(stream.KindOf(k), func(e event.Event) { ch <- e })

	return ch
}

func TestDispatcher_CommandCompletion(t *testing.T) {
	s := stream.New()
	reg := dispatch.NewRegistry()
	h := &recordingHandler{}
	reg.RegisterCommand("TestCommand", h)

	d := dispatch.New(s, reg, nil)
	d.Start(t.Context())

	completed := subscribeKind(s, event.KindCommandExecuted)
	corrID := event.NewCorrelationID()

	if err := s.Publish(event.NewExecuteCommand(testCmd{ID: "1"}, corrID)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	done := waitFor(t, completed).(event.CommandExecuted)
	if done.CommandName != "TestCommand" || done.CorrelationID != corrID {
		t.Fatalf("unexpected completion: %+v", done)
	}

	d.Stop()
	_ = s.Close()

	if len(h.seen) != 1 {
		t.Fatalf("expected handler invoked once, got %d", len(h.seen))
	}

	select {
	case e := <-completed:
		t.Fatalf("extra completion event: %+v", e)
	default:
	}
}

func TestDispatcher_UnregisteredCommand(t *testing.T) {
	s := stream.New()
	d := dispatch.New(s, dispatch.NewRegistry(), nil)
	d.Start(t.Context())

	failures := subscribeKind(s, event.KindApplicationError)
	completed := subscribeKind(s, event.KindCommandExecuted)

	_ = s.Publish(event.NewExecuteCommand(testCmd{ID: "1"}, "corr-1"))

	failure := waitFor(t, failures).(event.ApplicationError)
	if failure.Context != "Dispatcher" {
		t.Fatalf("unexpected context: %q", failure.Context)
	}

	if !strings.Contains(failure.Message, "TestCommand") {
		t.Fatalf("message should name the command: %q", failure.Message)
	}

	if !strings.Contains(failure.Message, berr.ErrCodeHandlerNotFound) {
		t.Fatalf("message should carry the routing error code: %q", failure.Message)
	}

	d.Stop()
	_ = s.Close()

	select {
	case e := <-completed:
		t.Fatalf("no completion may follow a routing failure, got %+v", e)
	default:
	}

	select {
	case e := <-failures:
		t.Fatalf("exactly one ApplicationError expected, got extra %+v", e)
	default:
	}
}

func TestDispatcher_QueryResult(t *testing.T) {
	s := stream.New()
	reg := dispatch.NewRegistry()
	reg.RegisterQuery("TestQuery", balanceQueryHandler{result: int64(500)})

	d := dispatch.New(s, reg, nil)
	d.Start(t.Context())

	completed := subscribeKind(s, event.KindQueryExecuted)

	_ = s.Publish(event.NewExecuteQuery(testQry{ID: "q"}, "query-1"))

	done := waitFor(t, completed).(event.QueryExecuted)
	if done.QueryName != "TestQuery" || done.CorrelationID != "query-1" {
		t.Fatalf("unexpected completion: %+v", done)
	}

	if done.Result.(int64) != 500 {
		t.Fatalf("unexpected result: %v", done.Result)
	}

	d.Stop()
	_ = s.Close()
}

func TestDispatcher_QueryNilResult(t *testing.T) {
	s := stream.New()
	reg := dispatch.NewRegistry()
	reg.RegisterQuery("TestQuery", balanceQueryHandler{result: nil})

	d := dispatch.New(s, reg, nil)
	d.Start(t.Context())

	completed := subscribeKind(s, event.KindQueryExecuted)

	_ = s.Publish(event.NewExecuteQuery(testQry{ID: "missing"}, "query-2"))

	done := waitFor(t, completed).(event.QueryExecuted)
	if done.Result != nil {
		t.Fatalf("expected absent result, got %v", done.Result)
	}

	d.Stop()
	_ = s.Close()
}

func TestDispatcher_PanicDoesNotKillDispatch(t *testing.T) {
	s := stream.New()
	reg := dispatch.NewRegistry()
	reg.RegisterCommand("TestCommand", panicHandler{})

	d := dispatch.New(s, reg, nil)
	d.Start(t.Context())

	failures := subscribeKind(s, event.KindApplicationError)
	completed := subscribeKind(s, event.KindCommandExecuted)

	_ = s.Publish(event.NewExecuteCommand(testCmd{ID: "1"}, "corr-1"))

	failure := waitFor(t, failures).(event.ApplicationError)
	if !strings.Contains(failure.Message, "panic") {
		t.Fatalf("expected panic to surface, got %q", failure.Message)
	}

	// the dispatcher must keep routing after a handler panic
	h := &recordingHandler{}
	reg.RegisterCommand("TestCommand", h)

	_ = s.Publish(event.NewExecuteCommand(testCmd{ID: "2"}, "corr-2"))

	done := waitFor(t, completed).(event.CommandExecuted)
	if done.CorrelationID != "corr-2" {
		t.Fatalf("unexpected completion: %+v", done)
	}

	d.Stop()
	_ = s.Close()
}

func TestDispatcher_StopDropsLateDeliveries(t *testing.T) {
	s := stream.New()
	reg := dispatch.NewRegistry()
	h := &recordingHandler{}
	reg.RegisterCommand("TestCommand", h)

	// A blocking subscriber registered ahead of the dispatcher parks delivery,
	// so the request is still inside the stream when Stop returns.
	gate := make(chan struct{})
	entered := make(chan struct{})
	s.Subscribe(stream.KindOf(event.KindExecuteCommand), func(event.Event) {
		close(entered)
		<-gate
	})

	d := dispatch.New(s, reg, nil)
	d.Start(t.Context())

	_ = s.Publish(event.NewExecuteCommand(testCmd{ID: "1"}, "corr-1"))

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never reached the gate")
	}

	d.Stop()

	// releasing the gate hands the parked request to the dispatcher's
	// callback; it must be dropped, not handled after Stop returned
	close(gate)
	_ = s.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.seen) != 0 {
		t.Fatalf("handler ran after Stop returned: %d invocations", len(h.seen))
	}
}

func TestDispatcher_MiddlewareOrder(t *testing.T) {
	s := stream.New()
	reg := dispatch.NewRegistry()
	h := &recordingHandler{}
	reg.RegisterCommand("TestCommand", h)

	var (
		mu    sync.Mutex
		trace []string
	)

	mw := func(tag string) dispatch.Middleware {
		return func(next dispatch.ExecFunc) dispatch.ExecFunc {
			return func(ctx context.Context, cmd event.Command) error {
				mu.Lock()
				trace = append(trace, tag)
				mu.Unlock()

				return next(ctx, cmd)
			}
		}
	}

	d := dispatch.New(s, reg, nil, dispatch.WithCommandMiddleware(mw("outer"), mw("inner")))
	d.Start(t.Context())

	completed := subscribeKind(s, event.KindCommandExecuted)

	_ = s.Publish(event.NewExecuteCommand(testCmd{ID: "1"}, "corr-1"))
	waitFor(t, completed)

	d.Stop()
	_ = s.Close()

	mu.Lock()
	defer mu.Unlock()

	if len(trace) != 2 || trace[0] != "outer" || trace[1] != "inner" {
		t.Fatalf("middleware ran out of order: %v", trace)
	}
}
