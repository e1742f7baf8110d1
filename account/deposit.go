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

const depositContext = "DepositCommandHandler"

// DepositCommandHandler adds funds to an account. Same validation order as
// withdraw, minus the funds check.
type DepositCommandHandler struct {
	ledger *ledger.Ledger
	stream *stream.Stream
	logger *slog.Logger
}

// NewDepositCommandHandler constructs the handler.
func NewDepositCommandHandler(l *ledger.Ledger, s *stream.Stream, logger *slog.Logger) *DepositCommandHandler {
	return &DepositCommandHandler{ledger: l, stream: s, logger: pickLogger(logger)}
}

var _ event.CommandHandler = (*DepositCommandHandler)(nil)

func (h *DepositCommandHandler) Execute(ctx context.Context, cmd event.Command) error {
	c, ok := cmd.(DepositCommand)
	if !ok {
		return fmt.Errorf("deposit %T: %w", cmd, berr.ErrHandlerTypeMismatch)
	}

	if c.Amount <= 0 {
		h.logger.Error("deposit failed: amount must be positive", "account", c.AccountID, "amount", c.Amount)

		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := h.ledger.GetBalance(ctx, c.AccountID)
		if errors.Is(err, berr.ErrAccountNotFound) {
			h.logger.Error("deposit failed: account not found", "account", c.AccountID)

			return nil
		}

		if err != nil {
			publish(h.stream, h.logger, event.NewApplicationError(depositContext, err.Error()))

			return nil
		}

		err = h.ledger.UpdateBalance(ctx, c.AccountID, current, current+c.Amount)

		switch {
		case err == nil:
			publish(h.stream, h.logger, event.NewMoneyDeposited(c.AccountID, c.Amount))

			return nil
		case errors.Is(err, berr.ErrBalanceConflict):
			continue
		case errors.Is(err, berr.ErrAccountNotFound):
			h.logger.Error("deposit failed: account not found", "account", c.AccountID)

			return nil
		default:
			publish(h.stream, h.logger, event.NewApplicationError(depositContext, err.Error()))

			return nil
		}
	}

	publish(h.stream, h.logger, event.NewApplicationError(depositContext,
		fmt.Sprintf("balance update for %s: retries exhausted", c.AccountID)))

	return nil
}
