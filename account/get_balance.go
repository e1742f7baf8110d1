package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/ledger"
	"github.com/next-trace/scg-ledger-bus/stream"
)

// GetBalanceQueryHandler is a pure passthrough to the ledger. No validation,
// no events: a missing account is a nil result, not a fault.
type GetBalanceQueryHandler struct {
	ledger *ledger.Ledger
}

// NewGetBalanceQueryHandler constructs the handler.
func NewGetBalanceQueryHandler(l *ledger.Ledger) *GetBalanceQueryHandler {
	return &GetBalanceQueryHandler{ledger: l}
}

var _ event.QueryHandler = (*GetBalanceQueryHandler)(nil)

func (h *GetBalanceQueryHandler) Execute(ctx context.Context, q event.Query) (any, error) {
	g, ok := q.(GetBalanceQuery)
	if !ok {
		return nil, fmt.Errorf("get balance %T: %w", q, berr.ErrHandlerTypeMismatch)
	}

	balance, err := h.ledger.GetBalance(ctx, g.AccountID)
	if errors.Is(err, berr.ErrAccountNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return balance, nil
}

// publish pushes e onto the stream; a closed stream is logged, never fatal.
func publish(s *stream.Stream, logger *slog.Logger, e event.Event) {
	if err := s.Publish(e); err != nil {
		logger.Error("publish failed", "kind", e.EventKind(), "err", err)
	}
}

func pickLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger
}
