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

const withdrawContext = "WithdrawCommandHandler"

// maxUpdateAttempts bounds the compare-and-set retry loop in the command
// handlers. Each retry re-reads the balance and re-runs the funds check.
const maxUpdateAttempts = 5

// WithdrawCommandHandler removes funds from an account.
//
// Validation order is load-bearing: non-positive amounts and unknown accounts
// are rejected locally (a log line, no event), an uncovered amount publishes
// InsufficientFunds, and only then is the balance replaced and MoneyWithdrawn
// published. Callers watching the stream infer local rejections from the
// absence of a domain event.
type WithdrawCommandHandler struct {
	ledger *ledger.Ledger
	stream *stream.Stream
	logger *slog.Logger
}

// NewWithdrawCommandHandler constructs the handler.
func NewWithdrawCommandHandler(l *ledger.Ledger, s *stream.Stream, logger *slog.Logger) *WithdrawCommandHandler {
	return &WithdrawCommandHandler{ledger: l, stream: s, logger: pickLogger(logger)}
}

var _ event.CommandHandler = (*WithdrawCommandHandler)(nil)

func (h *WithdrawCommandHandler) Execute(ctx context.Context, cmd event.Command) error {
	c, ok := cmd.(WithdrawCommand)
	if !ok {
		return fmt.Errorf("withdraw %T: %w", cmd, berr.ErrHandlerTypeMismatch)
	}

	if c.Amount <= 0 {
		h.logger.Error("withdrawal failed: amount must be positive", "account", c.AccountID, "amount", c.Amount)

		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := h.ledger.GetBalance(ctx, c.AccountID)
		if errors.Is(err, berr.ErrAccountNotFound) {
			h.logger.Error("withdrawal failed: account not found", "account", c.AccountID)

			return nil
		}

		if err != nil {
			publish(h.stream, h.logger, event.NewApplicationError(withdrawContext, err.Error()))

			return nil
		}

		if current < c.Amount {
			publish(h.stream, h.logger, event.NewInsufficientFunds(c.AccountID, c.Amount, current))

			return nil
		}

		err = h.ledger.UpdateBalance(ctx, c.AccountID, current, current-c.Amount)

		switch {
		case err == nil:
			publish(h.stream, h.logger, event.NewMoneyWithdrawn(c.AccountID, c.Amount))

			return nil
		case errors.Is(err, berr.ErrBalanceConflict):
			// lost the race; re-read and re-validate
			continue
		case errors.Is(err, berr.ErrAccountNotFound):
			h.logger.Error("withdrawal failed: account not found", "account", c.AccountID)

			return nil
		default:
			publish(h.stream, h.logger, event.NewApplicationError(withdrawContext, err.Error()))

			return nil
		}
	}

	publish(h.stream, h.logger, event.NewApplicationError(withdrawContext,
		fmt.Sprintf("balance update for %s: retries exhausted", c.AccountID)))

	return nil
}
