package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/stream"
)

// Envelope is the broker wire form of a domain outcome event.
type Envelope struct {
	Kind       string      `json:"kind"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    event.Event `json:"payload"`
}

// PublishOptions controls broker publishing.
type PublishOptions struct {
	TopicOverride string
	Key           string
	Headers       map[string]string
}

// Publisher abstracts publishing envelopes to a broker. Implementations map
// to Kafka/NATS/RabbitMQ etc; see the adapters packages.
type Publisher interface {
	Publish(ctx context.Context, env Envelope, opts PublishOptions) error
}

// DefaultTopic maps an event kind to its broker topic.
func DefaultTopic(k event.Kind) string {
	switch k {
	case event.KindMoneyDeposited:
		return "ledger.money_deposited"
	case event.KindMoneyWithdrawn:
		return "ledger.money_withdrawn"
	case event.KindInsufficientFunds:
		return "ledger.insufficient_funds"
	case event.KindApplicationError:
		return "ledger.application_error"
	default:
		return "ledger.events"
	}
}

// Relay forwards domain outcome events from the stream to a broker publisher.
// Like the event logger it is a pure observer: delivery failures are logged,
// never fed back into dispatch, and removing the relay changes no other
// component's behavior.
type Relay struct {
	stream    *stream.Stream
	publisher Publisher
	logger    *slog.Logger
	sub       *stream.Subscription
}

// New constructs a Relay. It does not forward until Start is called.
func New(s *stream.Stream, publisher Publisher, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Relay{stream: s, publisher: publisher, logger: logger}
}

// Start subscribes to the domain outcome events. ctx bounds each broker
// publish.
func (r *Relay) Start(ctx context.Context) {
	if r.sub != nil {
		return
	}

	r.sub = r.stream.Subscribe(stream.KindOf(
		event.KindMoneyDeposited,
		event.KindMoneyWithdrawn,
		event.KindInsufficientFunds,
		event.KindApplicationError,
	), func(e event.Event) {
		env := Envelope{Kind: string(e.EventKind()), OccurredAt: e.OccurredAt(), Payload: e}
		opts := PublishOptions{TopicOverride: DefaultTopic(e.EventKind())}

		if err := r.publisher.Publish(ctx, env, opts); err != nil {
			r.logger.Error("relay publish failed", "kind", e.EventKind(), "err", err)
		}
	})
}

// Close stops forwarding.
func (r *Relay) Close() {
	if r.sub != nil {
		r.sub.Unsubscribe()
		r.sub = nil
	}
}
