package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/layout"
	"github.com/cuemby/spoolctl/pkg/types"
)

// PoolSnapshot is the on-ledger state of a pool read at one point in time
type PoolSnapshot struct {
	Address       solana.PublicKey
	Program       types.Program
	Pool          *types.StakePool
	ValidatorList *types.ValidatorList
	Reserve       *Account
	Clock         types.Clock
	Rent          types.Rent
}

// FetchPool reads a pool, its validator list and reserve, and the clock and
// rent sysvars. The owner of the pool account decides the program.
func FetchPool(ctx context.Context, c Client, address solana.PublicKey) (*PoolSnapshot, error) {
	accounts, err := c.GetAccounts(ctx, []solana.PublicKey{address, solana.SysVarClockPubkey, solana.SysVarRentPubkey})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool: %w", err)
	}
	for i, key := range []solana.PublicKey{address, solana.SysVarClockPubkey, solana.SysVarRentPubkey} {
		if accounts[i] == nil {
			return nil, &NotFoundError{Address: key}
		}
	}

	snap := &PoolSnapshot{
		Address: address,
		Program: types.ProgramFromID(accounts[0].Owner),
	}
	if snap.Pool, err = layout.DecodeStakePool(accounts[0].Data); err != nil {
		return nil, fmt.Errorf("failed to decode pool %s: %w", address, err)
	}
	if snap.Clock, err = layout.DecodeClock(accounts[1].Data); err != nil {
		return nil, fmt.Errorf("failed to decode clock: %w", err)
	}
	if snap.Rent, err = layout.DecodeRent(accounts[2].Data); err != nil {
		return nil, fmt.Errorf("failed to decode rent: %w", err)
	}

	refs := []solana.PublicKey{snap.Pool.ValidatorList, snap.Pool.ReserveStake}
	accounts, err = c.GetAccounts(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch validator list and reserve: %w", err)
	}
	for i, key := range refs {
		if accounts[i] == nil {
			return nil, &NotFoundError{Address: key}
		}
	}
	if snap.ValidatorList, err = layout.DecodeValidatorList(accounts[0].Data); err != nil {
		return nil, fmt.Errorf("failed to decode validator list %s: %w", refs[0], err)
	}
	snap.Reserve = accounts[1]
	return snap, nil
}

// FetchStakeAccounts reads and decodes stake accounts in order. Accounts
// that do not exist are returned as nil.
func FetchStakeAccounts(ctx context.Context, c Client, keys []solana.PublicKey) ([]*types.StakeAccount, error) {
	accounts, err := c.GetAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stake accounts: %w", err)
	}

	out := make([]*types.StakeAccount, len(keys))
	for i, acc := range accounts {
		if acc == nil {
			continue
		}
		state, err := layout.DecodeStakeState(acc.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode stake account %s: %w", keys[i], err)
		}
		out[i] = &types.StakeAccount{Address: keys[i], Lamports: acc.Lamports, State: state}
	}
	return out, nil
}
