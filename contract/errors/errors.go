package errors

// Error codes for the ledger bus contracts. Keep stable; used across stores, dispatch and adapters.
const (
	ErrCodeHandlerNotFound     = "ledgerbus.handler_not_found"
	ErrCodeHandlerTypeMismatch = "ledgerbus.handler_type_mismatch"
	ErrCodeAccountNotFound     = "ledgerbus.account_not_found"
	ErrCodeBalanceConflict     = "ledgerbus.balance_conflict"
	ErrCodeStreamClosed        = "ledgerbus.stream_closed"
	ErrCodePublishFailed       = "ledgerbus.publish_failed"
	ErrCodeSerializationFailed = "ledgerbus.serialization_failed"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrHandlerNotFound     = Code(ErrCodeHandlerNotFound)
	ErrHandlerTypeMismatch = Code(ErrCodeHandlerTypeMismatch)
	ErrAccountNotFound     = Code(ErrCodeAccountNotFound)
	ErrBalanceConflict     = Code(ErrCodeBalanceConflict)
	ErrStreamClosed        = Code(ErrCodeStreamClosed)
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
)
