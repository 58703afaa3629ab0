package errs_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/submitgo/submit/errs"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Category
	}{
		{"timeout", errs.ErrTimeout, errs.Transient},
		{"cancelled", errs.ErrCancelled, errs.Cancelled},
		{"connect transient", &errs.ConnectError{Err: fmt.Errorf("refused")}, errs.Transient},
		{"connect verification failed", &errs.ConnectError{Err: fmt.Errorf("bad cert"), VerificationFailed: true}, errs.Permanent},
		{"protocol", &errs.ProtocolError{Text: "unexpected reply"}, errs.Permanent},
		{"auth", &errs.AuthError{Code: 535}, errs.Permanent},
		{"transaction 4xx", &errs.TransactionError{Code: 450}, errs.Transient},
		{"transaction 5xx", &errs.TransactionError{Code: 550}, errs.Permanent},
		{"build", &errs.BuildError{Reason: "missing From"}, errs.Permanent},
		{"unrecognized", fmt.Errorf("boom"), errs.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errs.Classify(tt.err))
		})
	}
}

func TestTransactionError_Transient(t *testing.T) {
	assert.True(t, (&errs.TransactionError{Code: 421}).Transient())
	assert.False(t, (&errs.TransactionError{Code: 550}).Transient())
}
