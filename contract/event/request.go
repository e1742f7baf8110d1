package event

import "github.com/google/uuid"

// Command is a request to mutate state. CommandName returns the registry
// token the dispatcher resolves the handler by; it must be stable and unique
// per command type. A command should have a single handler.
type Command interface {
	CommandName() string
}

// Query is a request to read state without mutating it. QueryName returns the
// registry token, same rules as CommandName.
type Query interface {
	QueryName() string
}

// NewCorrelationID returns an opaque token linking a request event to its
// completion event.
func NewCorrelationID() string { return uuid.NewString() }
