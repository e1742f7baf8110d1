package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/relay"
)

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Adapter implements relay.Publisher using an injected NATS-like Client.
type Adapter struct {
	Client Client
}

// Ensure Adapter implements the contract.
var _ relay.Publisher = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

func (a *Adapter) Publish(ctx context.Context, env relay.Envelope, opts relay.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats publish: %w", berr.ErrPublishFailed)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("nats publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if err := a.Client.Publish(subjectFor(env, opts), body, publishHeaders(opts)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats publish: %w", errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func subjectFor(env relay.Envelope, o relay.PublishOptions) string {
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
