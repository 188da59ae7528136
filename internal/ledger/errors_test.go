package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/treasury/internal/ledger"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      string
		rejection bool
	}{
		{name: "nil", err: nil, want: "ok"},
		{name: "wrapped", err: fmt.Errorf("settle: %w", ledger.ErrInvalidBatch), want: "invalid_batch", rejection: true},
		{name: "unauthorized", err: ledger.ErrUnauthorized, want: "unauthorized", rejection: true},
		{
			name:      "custody recipient inside invalid batch",
			err:       fmt.Errorf("%w: payout 1: %w", ledger.ErrInvalidBatch, ledger.ErrCustodyRecipient),
			want:      "custody_recipient",
			rejection: true,
		},
		{name: "transfer", err: ledger.ErrTransferFailed, want: "transfer_failed"},
		{
			name: "rollback wins over transfer",
			err:  errors.Join(ledger.ErrTransferFailed, ledger.ErrRollbackFailed),
			want: "rollback_failed",
		},
		{name: "foreign", err: errors.New("boom"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.Kind(tt.err))
			assert.Equal(t, tt.rejection, ledger.IsRejection(tt.err))
		})
	}
}
