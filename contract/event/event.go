package event

import (
	"time"

	cledger "github.com/next-trace/scg-ledger-bus/contract/ledger"
)

// Kind enumerates the closed set of event variants carried by the stream.
type Kind string

const (
	KindMoneyDeposited    Kind = "MoneyDeposited"
	KindMoneyWithdrawn    Kind = "MoneyWithdrawn"
	KindInsufficientFunds Kind = "InsufficientFunds"
	KindApplicationError  Kind = "ApplicationError"
	KindExecuteCommand    Kind = "ExecuteCommand"
	KindExecuteQuery      Kind = "ExecuteQuery"
	KindCommandExecuted   Kind = "CommandExecuted"
	KindQueryExecuted     Kind = "QueryExecuted"
)

// Event is the tagged union over the variants above. Events are immutable
// values and must never be mutated after publish.
type Event interface {
	EventKind() Kind
	OccurredAt() time.Time
}

// MoneyDeposited records a completed deposit.
type MoneyDeposited struct {
	AccountID cledger.AccountID
	Amount    cledger.Balance
	At        time.Time
}

// NewMoneyDeposited stamps a MoneyDeposited with the current time.
func NewMoneyDeposited(id cledger.AccountID, amount cledger.Balance) MoneyDeposited {
	return MoneyDeposited{AccountID: id, Amount: amount, At: time.Now().UTC()}
}

func (e MoneyDeposited) EventKind() Kind       { return KindMoneyDeposited }
func (e MoneyDeposited) OccurredAt() time.Time { return e.At }

// MoneyWithdrawn records a completed withdrawal.
type MoneyWithdrawn struct {
	AccountID cledger.AccountID
	Amount    cledger.Balance
	At        time.Time
}

// NewMoneyWithdrawn stamps a MoneyWithdrawn with the current time.
func NewMoneyWithdrawn(id cledger.AccountID, amount cledger.Balance) MoneyWithdrawn {
	return MoneyWithdrawn{AccountID: id, Amount: amount, At: time.Now().UTC()}
}

func (e MoneyWithdrawn) EventKind() Kind       { return KindMoneyWithdrawn }
func (e MoneyWithdrawn) OccurredAt() time.Time { return e.At }

// InsufficientFunds records a withdrawal rejected by the funds check.
// It is an expected business outcome, not a fault.
type InsufficientFunds struct {
	AccountID      cledger.AccountID
	Amount         cledger.Balance
	CurrentBalance cledger.Balance
	At             time.Time
}

// NewInsufficientFunds stamps an InsufficientFunds with the current time.
func NewInsufficientFunds(id cledger.AccountID, amount, current cledger.Balance) InsufficientFunds {
	return InsufficientFunds{AccountID: id, Amount: amount, CurrentBalance: current, At: time.Now().UTC()}
}

func (e InsufficientFunds) EventKind() Kind       { return KindInsufficientFunds }
func (e InsufficientFunds) OccurredAt() time.Time { return e.At }

// ApplicationError reports an unexpected fault or routing failure.
// Context names the component that raised it.
type ApplicationError struct {
	Context string
	Message string
	At      time.Time
}

// NewApplicationError stamps an ApplicationError with the current time.
func NewApplicationError(context, message string) ApplicationError {
	return ApplicationError{Context: context, Message: message, At: time.Now().UTC()}
}

func (e ApplicationError) EventKind() Kind       { return KindApplicationError }
func (e ApplicationError) OccurredAt() time.Time { return e.At }

// ExecuteCommand wraps a command for dispatch over the stream.
type ExecuteCommand struct {
	Command       Command
	CorrelationID string
	At            time.Time
}

// NewExecuteCommand wraps cmd with the caller-supplied correlation ID.
func NewExecuteCommand(cmd Command, correlationID string) ExecuteCommand {
	return ExecuteCommand{Command: cmd, CorrelationID: correlationID, At: time.Now().UTC()}
}

func (e ExecuteCommand) EventKind() Kind       { return KindExecuteCommand }
func (e ExecuteCommand) OccurredAt() time.Time { return e.At }

// ExecuteQuery wraps a query for dispatch over the stream.
type ExecuteQuery struct {
	Query         Query
	CorrelationID string
	At            time.Time
}

// NewExecuteQuery wraps q with the caller-supplied correlation ID.
func NewExecuteQuery(q Query, correlationID string) ExecuteQuery {
	return ExecuteQuery{Query: q, CorrelationID: correlationID, At: time.Now().UTC()}
}

func (e ExecuteQuery) EventKind() Kind       { return KindExecuteQuery }
func (e ExecuteQuery) OccurredAt() time.Time { return e.At }

// CommandExecuted signals that a command was fully processed. It says nothing
// about the business outcome; that is carried by the domain events above.
type CommandExecuted struct {
	CommandName   string
	CorrelationID string
	At            time.Time
}

// NewCommandExecuted stamps a CommandExecuted with the current time.
func NewCommandExecuted(name, correlationID string) CommandExecuted {
	return CommandExecuted{CommandName: name, CorrelationID: correlationID, At: time.Now().UTC()}
}

func (e CommandExecuted) EventKind() Kind       { return KindCommandExecuted }
func (e CommandExecuted) OccurredAt() time.Time { return e.At }

// QueryExecuted signals that a query was fully processed and carries its
// result. Result is nil when the query target does not exist.
type QueryExecuted struct {
	QueryName     string
	CorrelationID string
	Result        any
	At            time.Time
}

// NewQueryExecuted stamps a QueryExecuted with the current time.
func NewQueryExecuted(name, correlationID string, result any) QueryExecuted {
	return QueryExecuted{QueryName: name, CorrelationID: correlationID, Result: result, At: time.Now().UTC()}
}

func (e QueryExecuted) EventKind() Kind       { return KindQueryExecuted }
func (e QueryExecuted) OccurredAt() time.Time { return e.At }
