package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/relay"
)

// Writer is a minimal Kafka-like writer interface.
// Users can adapt franz-go or any other client to this.
type Writer interface {
	Write(topic string, key, value []byte, headers map[string]string) error
}

// Adapter implements relay.Publisher using an injected Writer.
type Adapter struct {
	Writer Writer
}

var _ relay.Publisher = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

func (a *Adapter) Publish(ctx context.Context, env relay.Envelope, opts relay.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka publish: %w", berr.ErrPublishFailed)
	}

	val, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("kafka publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	topic := topicFor(env, opts)
	key := []byte(opts.Key)

	if err = a.Writer.Write(topic, key, val, opts.Headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka publish write: %w", errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func topicFor(env relay.Envelope, o relay.PublishOptions) string {
	if o.TopicOverride != "" {
		return o.TopicOverride
	}

	return relay.DefaultTopic(event.Kind(env.Kind))
}
