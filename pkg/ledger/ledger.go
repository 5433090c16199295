package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrAccountNotFound is returned when a required account does not exist
var ErrAccountNotFound = errors.New("account not found")

// Account is a fetched account
type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// SimulationResult is the outcome of a dry run
type SimulationResult struct {
	// Err is the transaction error reported by the node, nil on success
	Err           error
	Logs          []string
	UnitsConsumed uint64
}

// SignatureStatus is the processing state of a submitted transaction
type SignatureStatus struct {
	Found     bool
	Confirmed bool
	Err       error
}

// Client is the ledger access used by every command
type Client interface {
	// GetAccounts fetches accounts in order, nil for accounts that do not exist
	GetAccounts(ctx context.Context, keys []solana.PublicKey) ([]*Account, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	Simulate(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error)
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)
}

// NotFoundError names the missing account
type NotFoundError struct {
	Address solana.PublicKey
}

func (e *NotFoundError) Error() string {
	return "account " + e.Address.String() + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrAccountNotFound
}
