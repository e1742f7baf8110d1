package stream

import (
	"sync"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
)

// Predicate filters events for a subscription. A nil predicate matches everything.
type Predicate func(event.Event) bool

// KindOf returns a Predicate matching any of the given kinds.
func KindOf(kinds ...event.Kind) Predicate {
	return func(e event.Event) bool {
		for _, k := range kinds {
			if e.EventKind() == k {
				return true
			}
		}

		return false
	}
}

// Stream is an ordered, multi-subscriber broadcast of events. Every published
// event is fanned out to all matching subscribers, in subscription order; each
// subscriber observes events in publish order. There is no replay: a
// subscriber only receives events published after it subscribed.
//
// Delivery runs on a single goroutine owned by the stream, so subscriber
// callbacks for one event complete before the next event is delivered.
// Publish never blocks on subscriber completion and is safe to call from
// within a callback.
//
// Stream is concurrency-safe and contains no global state.
type Stream struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []queued
	subs    []*subscriber
	nextSeq uint64
	nextID  int
	closing bool
	closed  bool
	done    chan struct{}
}

type queued struct {
	seq uint64
	ev  event.Event
}

type subscriber struct {
	id    int
	after uint64 // only events with seq >= after are delivered
	pred  Predicate
	fn    func(event.Event)
}

// Subscription is the handle returned by Subscribe. Unsubscribe stops future
// deliveries; an event already being delivered may still arrive.
type Subscription struct {
	s  *Stream
	id int
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || sub.s == nil {
		return
	}

	sub.s.remove(sub.id)
	sub.s = nil
}

// New constructs a Stream and starts its delivery goroutine.
func New() *Stream {
	s := &Stream{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)

	go s.run()

	return s
}

// Publish appends e to the broadcast. It returns errors.ErrStreamClosed once
// Close has drained the queue; it never blocks on subscriber completion.
func (s *Stream) Publish(e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return berr.ErrStreamClosed
	}

	s.queue = append(s.queue, queued{seq: s.nextSeq, ev: e})
	s.nextSeq++
	s.cond.Signal()

	return nil
}

// Subscribe registers fn for every subsequently published event satisfying
// pred. Events queued before the call are not delivered to fn.
func (s *Stream) Subscribe(pred Predicate, fn func(event.Event)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, &subscriber{id: id, after: s.nextSeq, pred: pred, fn: fn})

	return &Subscription{s: s, id: id}
}

// Close stops the stream after draining already-published events. It blocks
// until the last delivery completes, which makes it a barrier in tests.
//
// Close is two-phase: the stream keeps accepting publishes until the delivery
// goroutine observes an empty queue, so a callback reacting to a drained event
// can still publish and be heard. Once the drain settles, Publish fails with
// errors.ErrStreamClosed.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.done

		return nil
	}

	s.closing = true
	s.cond.Signal()
	s.mu.Unlock()

	<-s.done

	return nil
}

func (s *Stream) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)

			return
		}
	}
}

func (s *Stream) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closing {
			s.cond.Wait()
		}

		if len(s.queue) == 0 {
			// drain settled; only now do publishes start failing
			s.closed = true
			s.mu.Unlock()
			close(s.done)

			return
		}

		next := s.queue[0]
		s.queue = s.queue[1:]

		subs := make([]*subscriber, len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()

		for _, sub := range subs {
			if next.seq < sub.after {
				continue
			}

			if sub.pred == nil || sub.pred(next.ev) {
				sub.fn(next.ev)
			}
		}
	}
}
