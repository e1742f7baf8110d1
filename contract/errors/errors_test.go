package errors_test

import (
	"errors"
	"testing"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
)

func TestCodeAndVars(t *testing.T) {
	e := berr.Code(berr.ErrCodePublishFailed)
	if e.Error() != berr.ErrCodePublishFailed {
		t.Fatalf("unexpected error string: %s", e.Error())
	}

	// exported variables must carry their codes
	tests := []struct {
		err  error
		code string
	}{
		{berr.ErrHandlerNotFound, berr.ErrCodeHandlerNotFound},
		{berr.ErrHandlerTypeMismatch, berr.ErrCodeHandlerTypeMismatch},
		{berr.ErrAccountNotFound, berr.ErrCodeAccountNotFound},
		{berr.ErrBalanceConflict, berr.ErrCodeBalanceConflict},
		{berr.ErrStreamClosed, berr.ErrCodeStreamClosed},
		{berr.ErrPublishFailed, berr.ErrCodePublishFailed},
		{berr.ErrSerializationFailed, berr.ErrCodeSerializationFailed},
	}

	for _, tc := range tests {
		if !errors.Is(tc.err, berr.Code(tc.code)) {
			t.Fatalf("expected %s to be %s", tc.err, tc.code)
		}
	}
}
