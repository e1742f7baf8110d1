package account

import (
	"github.com/next-trace/scg-ledger-bus/contract/event"
	cledger "github.com/next-trace/scg-ledger-bus/contract/ledger"
)

// WithdrawCommand requests removal of Amount from an account.
type WithdrawCommand struct {
	AccountID cledger.AccountID
	Amount    cledger.Balance
}

func (WithdrawCommand) CommandName() string { return "WithdrawCommand" }

// DepositCommand requests addition of Amount to an account.
type DepositCommand struct {
	AccountID cledger.AccountID
	Amount    cledger.Balance
}

func (DepositCommand) CommandName() string { return "DepositCommand" }

// GetBalanceQuery requests the current balance of an account.
type GetBalanceQuery struct {
	AccountID cledger.AccountID
}

func (GetBalanceQuery) QueryName() string { return "GetBalanceQuery" }

var (
	_ event.Command = WithdrawCommand{}
	_ event.Command = DepositCommand{}
	_ event.Query   = GetBalanceQuery{}
)
