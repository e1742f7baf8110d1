package inmemory

import (
	"context"
	"sync"

	"github.com/next-trace/scg-ledger-bus/relay"
)

// Publisher is a thread-safe in-memory implementation of relay.Publisher.
// It records published envelopes for testing and examples.
type Publisher struct {
	mu        sync.Mutex
	Envelopes []relay.Envelope
	Opts      []relay.PublishOptions
}

// Ensure Publisher implements the contract.
var _ relay.Publisher = (*Publisher)(nil)

// New creates a new in-memory publisher instance.
func New() *Publisher { return &Publisher{} }

func (p *Publisher) Publish(ctx context.Context, env relay.Envelope, opts relay.PublishOptions) error {
	p.mu.Lock()
	p.Envelopes = append(p.Envelopes, env)
	p.Opts = append(p.Opts, opts)
	p.mu.Unlock()

	return nil
}

// Published returns a copy of the recorded envelopes.
func (p *Publisher) Published() []relay.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]relay.Envelope(nil), p.Envelopes...)
}
