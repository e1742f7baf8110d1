package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/relay"
)

// PubMsg is the AMQP publishing unit the adapter hands to its Publisher.
type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

// Publisher abstracts the AMQP channel so the adapter can be tested without a broker.
type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

// Adapter implements relay.Publisher on top of an injected AMQP publisher.
// Envelopes go to the ledger events exchange with the topic as routing key.
type Adapter struct {
	Publisher Publisher
}

var _ relay.Publisher = (*Adapter)(nil)

// New creates a new RabbitMQ adapter with the provided publisher.
func New(p Publisher) *Adapter { return &Adapter{Publisher: p} }

func (a *Adapter) Publish(ctx context.Context, env relay.Envelope, opts relay.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq publish: %w", berr.ErrPublishFailed)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("rabbitmq publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	msg := PubMsg{
		Exchange:   ledgerExchange,
		RoutingKey: routingFor(env, opts),
		Body:       body,
		Headers:    publishHeaders(opts),
	}

	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq publish: %w", errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func routingFor(env relay.Envelope, o relay.PublishOptions) string {
	if o.TopicOverride != "" {
		return o.TopicOverride
	}

	return relay.DefaultTopic(event.Kind(env.Kind))
}

func publishHeaders(o relay.PublishOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+1)
	for k, v := range o.Headers {
		h[k] = v
	}

	if o.Key != "" {
		h["key"] = o.Key
	}

	return h
}
