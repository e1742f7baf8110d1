package account

import (
	"log/slog"

	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/stream"
)

// EventLogger renders one human-readable line per domain outcome event. It is
// a pure observer: it mutates nothing, and removing it changes no other
// component's behavior.
type EventLogger struct {
	logger *slog.Logger
	sub    *stream.Subscription
}

// NewEventLogger subscribes to the domain outcome events and starts logging.
func NewEventLogger(s *stream.Stream, logger *slog.Logger) *EventLogger {
	l := &EventLogger{logger: pickLogger(logger)}
	l.sub = s.Subscribe(stream.KindOf(
		event.KindMoneyWithdrawn,
		event.KindMoneyDeposited,
		event.KindInsufficientFunds,
	), l.handle)

	return l
}

// Close stops logging.
func (l *EventLogger) Close() { l.sub.Unsubscribe() }

func (l *EventLogger) handle(e event.Event) {
	switch ev := e.(type) {
	case event.MoneyWithdrawn:
		l.logger.Info("money withdrawn",
			"account", ev.AccountID, "amount", ev.Amount, "at", ev.At)
	case event.MoneyDeposited:
		l.logger.Info("money deposited",
			"account", ev.AccountID, "amount", ev.Amount, "at", ev.At)
	case event.InsufficientFunds:
		l.logger.Warn("withdrawal rejected: insufficient funds",
			"account", ev.AccountID, "amount", ev.Amount, "balance", ev.CurrentBalance, "at", ev.At)
	}
}
