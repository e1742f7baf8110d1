package stream_test

import (
	"errors"
	"sync"
	"testing"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/stream"
)

// collector gathers delivered events; Close on the stream is the barrier.
type collector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *collector) add(e event.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collector) all() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]event.Event(nil), c.events...)
}

func TestStream_FanOutAndOrder(t *testing.T) {
	s := stream.New()

	first := &collector{}
	second := &collector{}
	s.Subscribe(nil, first.add)
	s.Subscribe(nil, second.add)

	if err := s.Publish(event.NewMoneyDeposited("a123", 100)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := s.Publish(event.NewMoneyWithdrawn("a123", 40)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = s.Close()

	for _, c := range []*collector{first, second} {
		got := c.all()
		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}

		if got[0].EventKind() != event.KindMoneyDeposited || got[1].EventKind() != event.KindMoneyWithdrawn {
			t.Fatalf("events out of order: %v, %v", got[0].EventKind(), got[1].EventKind())
		}
	}
}

func TestStream_PredicateFilter(t *testing.T) {
	s := stream.New()

	c := &collector{}
	s.Subscribe(stream.KindOf(event.KindInsufficientFunds), c.add)

	_ = s.Publish(event.NewMoneyDeposited("a123", 100))
	_ = s.Publish(event.NewInsufficientFunds("a456", 600, 500))
	_ = s.Close()

	got := c.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}

	ev, ok := got[0].(event.InsufficientFunds)
	if !ok {
		t.Fatalf("unexpected event type %T", got[0])
	}

	if ev.AccountID != "a456" || ev.Amount != 600 || ev.CurrentBalance != 500 {
		t.Fatalf("unexpected payload: %+v", ev)
	}
}

func TestStream_NoReplayBeforeSubscription(t *testing.T) {
	s := stream.New()

	_ = s.Publish(event.NewMoneyDeposited("a123", 100))

	c := &collector{}
	s.Subscribe(nil, c.add)

	_ = s.Publish(event.NewMoneyDeposited("a123", 200))
	_ = s.Close()

	got := c.all()
	if len(got) != 1 {
		t.Fatalf("expected only the event published after subscribing, got %d", len(got))
	}

	if got[0].(event.MoneyDeposited).Amount != 200 {
		t.Fatalf("unexpected event: %+v", got[0])
	}
}

func TestStream_Unsubscribe(t *testing.T) {
	s := stream.New()

	c := &collector{}
	sub := s.Subscribe(nil, c.add)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	_ = s.Publish(event.NewMoneyDeposited("a123", 100))
	_ = s.Close()

	if len(c.all()) != 0 {
		t.Fatalf("expected no deliveries after unsubscribe")
	}
}

func TestStream_PublishFromCallback(t *testing.T) {
	s := stream.New()

	c := &collector{}

	var nestedErr error

	s.Subscribe(nil, c.add)
	s.Subscribe(stream.KindOf(event.KindMoneyWithdrawn), func(e event.Event) {
		ev := e.(event.MoneyWithdrawn)
		nestedErr = s.Publish(event.NewMoneyDeposited(ev.AccountID, ev.Amount))
	})

	// Close drains the withdrawal; the publish issued from inside its
	// callback must still be accepted and delivered before the drain settles.
	_ = s.Publish(event.NewMoneyWithdrawn("a123", 40))
	_ = s.Close()

	if nestedErr != nil {
		t.Fatalf("publish from callback during drain: %v", nestedErr)
	}

	got := c.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}

	// the nested publish is delivered after the triggering event
	if got[0].EventKind() != event.KindMoneyWithdrawn || got[1].EventKind() != event.KindMoneyDeposited {
		t.Fatalf("events out of order: %v, %v", got[0].EventKind(), got[1].EventKind())
	}
}

func TestStream_PublishAfterClose(t *testing.T) {
	s := stream.New()
	_ = s.Close()

	if err := s.Publish(event.NewMoneyDeposited("a123", 100)); !errors.Is(err, berr.ErrStreamClosed) {
		t.Fatalf("want ErrStreamClosed, got %v", err)
	}

	_ = s.Close() // safe to call twice
}
