package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/next-trace/scg-ledger-bus/adapters/kafka"
	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/relay"
)

type fakeWriter struct {
	writes []struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}
	err error
}

func (f *fakeWriter) Write(topic string, key, value []byte, headers map[string]string) error {
	f.writes = append(f.writes, struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}{topic, key, value, headers})

	return f.err
}

func envelope() relay.Envelope {
	e := event.NewInsufficientFunds("a456", 600, 500)

	return relay.Envelope{Kind: string(e.EventKind()), OccurredAt: e.OccurredAt(), Payload: e}
}

func TestKafka_Publish(t *testing.T) {
	fw := &fakeWriter{}
	ad := kafka.New(fw)

	opts := relay.PublishOptions{Key: "a456"}
	if err := ad.Publish(t.Context(), envelope(), opts); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fw.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(fw.writes))
	}

	w := fw.writes[0]
	if w.topic != "ledger.insufficient_funds" {
		t.Fatalf("topic mismatch: %s", w.topic)
	}

	if string(w.key) != "a456" {
		t.Fatalf("key mismatch: %s", w.key)
	}

	var decoded struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(w.value, &decoded); err != nil {
		t.Fatalf("value is not json: %v", err)
	}

	if decoded.Kind != "InsufficientFunds" {
		t.Fatalf("kind mismatch: %s", decoded.Kind)
	}
}

func TestKafka_NilWriter(t *testing.T) {
	ad := kafka.New(nil)

	if err := ad.Publish(t.Context(), envelope(), relay.PublishOptions{}); !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
}

func TestKafka_WriterError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("partition offline")}
	ad := kafka.New(fw)

	if err := ad.Publish(t.Context(), envelope(), relay.PublishOptions{}); !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
}

func TestKafka_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	fw := &fakeWriter{}
	ad := kafka.New(fw)

	if err := ad.Publish(ctx, envelope(), relay.PublishOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	if len(fw.writes) != 0 {
		t.Fatalf("no write may happen after cancellation")
	}
}
