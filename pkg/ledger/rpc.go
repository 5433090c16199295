package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/cuemby/spoolctl/pkg/metrics"
)

// maxAccountsPerRequest is the getMultipleAccounts key limit
const maxAccountsPerRequest = 100

// RPCClient talks to a cluster over JSON-RPC
type RPCClient struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewRPCClient creates a client for the given endpoint
func NewRPCClient(endpoint string, commitment rpc.CommitmentType) *RPCClient {
	return &RPCClient{
		rpc:        rpc.New(endpoint),
		commitment: commitment,
	}
}

// ParseCommitment parses a --commitment value
func ParseCommitment(s string) (rpc.CommitmentType, error) {
	switch c := rpc.CommitmentType(s); c {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return c, nil
	default:
		return "", fmt.Errorf("invalid commitment %q (expected processed, confirmed or finalized)", s)
	}
}

// GetAccounts fetches accounts in requests of at most 100 keys, issued
// concurrently.
func (c *RPCClient) GetAccounts(ctx context.Context, keys []solana.PublicKey) ([]*Account, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RPCRequestDuration, "getMultipleAccounts")

	accounts := make([]*Account, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(keys); start += maxAccountsPerRequest {
		end := start + maxAccountsPerRequest
		if end > len(keys) {
			end = len(keys)
		}
		start, chunk := start, keys[start:end]
		g.Go(func() error {
			out, err := c.rpc.GetMultipleAccountsWithOpts(ctx, chunk, &rpc.GetMultipleAccountsOpts{
				Encoding:   solana.EncodingBase64,
				Commitment: c.commitment,
			})
			if err != nil {
				return fmt.Errorf("failed to get accounts: %w", err)
			}
			if len(out.Value) != len(chunk) {
				return fmt.Errorf("requested %d accounts, got %d", len(chunk), len(out.Value))
			}
			for i, acc := range out.Value {
				if acc == nil {
					continue
				}
				accounts[start+i] = &Account{
					Address:  chunk[i],
					Owner:    acc.Owner,
					Lamports: acc.Lamports,
					Data:     acc.Data.GetBinary(),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RPCRequestDuration, "getLatestBlockhash")

	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

// Simulate runs tx without signature verification, letting the node
// substitute a recent blockhash.
func (c *RPCClient) Simulate(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RPCRequestDuration, "simulateTransaction")

	out, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             c.commitment,
		ReplaceRecentBlockhash: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to simulate transaction: %w", err)
	}

	result := &SimulationResult{Logs: out.Value.Logs}
	if out.Value.Err != nil {
		result.Err = fmt.Errorf("%v", out.Value.Err)
	}
	if out.Value.UnitsConsumed != nil {
		result.UnitsConsumed = *out.Value.UnitsConsumed
	}
	return result, nil
}

func (c *RPCClient) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RPCRequestDuration, "sendTransaction")

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

func (c *RPCClient) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RPCRequestDuration, "getSignatureStatuses")

	out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return &SignatureStatus{}, nil
	}

	s := out.Value[0]
	status := &SignatureStatus{Found: true}
	if s.Err != nil {
		status.Err = fmt.Errorf("%v", s.Err)
	}
	status.Confirmed = reaches(s.ConfirmationStatus, c.commitment)
	return status, nil
}

// reaches reports whether a transaction at status satisfies commitment
func reaches(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	switch commitment {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	default:
		return status != ""
	}
}
