package ledger

import (
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
)

func TestReaches(t *testing.T) {
	tests := []struct {
		status     rpc.ConfirmationStatusType
		commitment rpc.CommitmentType
		want       bool
	}{
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed, true},
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed, false},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized, false},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentFinalized, true},
		{"", rpc.CommitmentProcessed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.commitment), func(t *testing.T) {
			assert.Equal(t, tt.want, reaches(tt.status, tt.commitment))
		})
	}
}

func TestParseCommitment(t *testing.T) {
	c, err := ParseCommitment("finalized")
	assert.NoError(t, err)
	assert.Equal(t, rpc.CommitmentFinalized, c)

	_, err = ParseCommitment("max")
	assert.Error(t, err)
}
