package event

import "context"

// CommandHandler executes one business operation for a command. Execute must
// not let unexpected faults escape: business outcomes and faults alike are
// published to the stream, and the returned error is reserved for
// wiring-level problems such as a type mismatch.
// Implementations must be safe for concurrent use by multiple goroutines.
type CommandHandler interface {
	Execute(ctx context.Context, cmd Command) error
}

// QueryHandler executes a query and returns its result. A nil result with a
// nil error means the query target does not exist.
// Implementations must be safe for concurrent use by multiple goroutines.
type QueryHandler interface {
	Execute(ctx context.Context, q Query) (any, error)
}
