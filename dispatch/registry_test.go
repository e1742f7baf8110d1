package dispatch_test

import (
	"context"
	"testing"

	"github.com/next-trace/scg-ledger-bus/contract/event"
	"github.com/next-trace/scg-ledger-bus/dispatch"
)

type nopCommandHandler struct{ tag string }

func (nopCommandHandler) Execute(ctx context.Context, cmd event.Command) error { return nil }

type nopQueryHandler struct{ tag string }

func (nopQueryHandler) Execute(ctx context.Context, q event.Query) (any, error) { return nil, nil }

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := dispatch.NewRegistry()

	r.RegisterCommand("WithdrawCommand", nopCommandHandler{tag: "first"})
	r.RegisterCommand("WithdrawCommand", nopCommandHandler{tag: "second"})

	h, ok := r.Command("WithdrawCommand")
	if !ok {
		t.Fatalf("expected handler")
	}

	if h.(nopCommandHandler).tag != "second" {
		t.Fatalf("expected last registration to win, got %q", h.(nopCommandHandler).tag)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := dispatch.NewRegistry()
	r.RegisterQuery("GetBalanceQuery", nopQueryHandler{tag: "q"})

	if _, ok := r.Query("GetBalanceQuery"); !ok {
		t.Fatalf("expected query handler")
	}

	if _, ok := r.Query("UnknownQuery"); ok {
		t.Fatalf("expected miss for unknown query")
	}

	if _, ok := r.Command("UnknownCommand"); ok {
		t.Fatalf("expected miss for unknown command")
	}
}
