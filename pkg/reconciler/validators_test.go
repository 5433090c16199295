package reconciler

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/spoolctl/pkg/ledger/ledgertest"
	"github.com/cuemby/spoolctl/pkg/types"
)

func entry(vote solana.PublicKey, status types.StakeStatus) types.ValidatorStakeInfo {
	return types.ValidatorStakeInfo{VoteAccount: vote, Status: status, LastUpdateEpoch: testEpoch}
}

func TestMembershipDiff(t *testing.T) {
	a, b, c, d := newVote(), newVote(), newVote(), newVote()
	list := &types.ValidatorList{Validators: []types.ValidatorStakeInfo{
		entry(a, types.StakeStatusActive),
		entry(b, types.StakeStatusActive),
		entry(c, types.StakeStatusActive),
	}}

	tests := []struct {
		name     string
		declared []solana.PublicKey
		add      []solana.PublicKey
		remove   []solana.PublicKey
	}{
		{"same set", []solana.PublicKey{c, a, b}, nil, nil},
		{"one new", []solana.PublicKey{a, b, c, d}, []solana.PublicKey{d}, nil},
		{"removals keep list order", []solana.PublicKey{b}, nil, []solana.PublicKey{a, c}},
		{"duplicates declared once", []solana.PublicKey{d, a, d, b, c}, []solana.PublicKey{d}, nil},
		{"empty declaration removes all", nil, nil, []solana.PublicKey{a, b, c}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, remove := MembershipDiff(list, tt.declared)
			assert.Equal(t, tt.add, add)

			var removed []solana.PublicKey
			for _, e := range remove {
				removed = append(removed, e.VoteAccount)
			}
			assert.Equal(t, tt.remove, removed)
		})
	}
}

func stakeAccount(vote solana.PublicKey, lamports uint64) *types.StakeAccount {
	return &types.StakeAccount{Lamports: lamports, State: ledgertest.ActiveStake(vote, lamports-rent.StakeRentExemption(), rent)}
}

func TestReconcileValidatorSet(t *testing.T) {
	keep, staked, bare, deactivating, removing, inFlight, added := newVote(), newVote(), newVote(), newVote(), newVote(), newVote(), newVote()

	flight := entry(inFlight, types.StakeStatusActive)
	flight.TransientStakeLamports = 1_000_000_000
	list := &types.ValidatorList{Validators: []types.ValidatorStakeInfo{
		entry(keep, types.StakeStatusActive),
		entry(staked, types.StakeStatusActive),
		entry(bare, types.StakeStatusActive),
		entry(deactivating, types.StakeStatusActive),
		entry(removing, types.StakeStatusDeactivatingValidator),
		flight,
	}}

	deactivatingAccount := stakeAccount(deactivating, floor+3_000_000_000)
	deactivatingAccount.State.Delegation.DeactivationEpoch = testEpoch

	cs, err := ReconcileValidatorSet(ValidatorSetInput{
		List:     list,
		Pool:     &types.StakePool{},
		Declared: []solana.PublicKey{keep, added},
		StakeAccounts: map[solana.PublicKey]*types.StakeAccount{
			staked:       stakeAccount(staked, floor+2_000_000_000),
			bare:         stakeAccount(bare, floor),
			deactivating: deactivatingAccount,
		},
		Rent: rent,
	})
	require.NoError(t, err)

	assert.Equal(t, []solana.PublicKey{added}, cs.Add)

	require.Len(t, cs.Remove, 3)
	assert.Equal(t, staked, cs.Remove[0].Entry.VoteAccount)
	assert.Equal(t, uint64(2_000_000_000), cs.Remove[0].Decrease)
	assert.Equal(t, bare, cs.Remove[1].Entry.VoteAccount)
	assert.Zero(t, cs.Remove[1].Decrease)
	assert.Equal(t, deactivating, cs.Remove[2].Entry.VoteAccount)
	assert.Zero(t, cs.Remove[2].Decrease, "deactivating stake is removed without a decrease")

	require.Len(t, cs.Skipped, 2)
	assert.Equal(t, removing, cs.Skipped[0].Entry.VoteAccount)
	assert.Equal(t, inFlight, cs.Skipped[1].Entry.VoteAccount)

	assert.Empty(t, cs.Preferred)
	assert.False(t, cs.IsEmpty())
}

func TestReconcileValidatorSetMissingStakeAccount(t *testing.T) {
	gone := newVote()
	_, err := ReconcileValidatorSet(ValidatorSetInput{
		List: &types.ValidatorList{Validators: []types.ValidatorStakeInfo{entry(gone, types.StakeStatusActive)}},
		Pool: &types.StakePool{},
		Rent: rent,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), gone.String())
}

func TestReconcilePreferredValidators(t *testing.T) {
	a, b := newVote(), newVote()
	list := &types.ValidatorList{Validators: []types.ValidatorStakeInfo{entry(a, types.StakeStatusActive), entry(b, types.StakeStatusActive)}}

	tests := []struct {
		name              string
		deposit, withdraw *solana.PublicKey
		wantDeposit       *solana.PublicKey
		wantWithdraw      *solana.PublicKey
		expect            []types.PreferredValidatorType
	}{
		{name: "unchanged", deposit: &a, withdraw: nil, wantDeposit: &a, wantWithdraw: nil},
		{name: "set withdraw", deposit: &a, wantDeposit: &a, wantWithdraw: &b, expect: []types.PreferredValidatorType{types.PreferredValidatorWithdraw}},
		{name: "clear deposit", deposit: &a, withdraw: &b, wantWithdraw: &b, expect: []types.PreferredValidatorType{types.PreferredValidatorDeposit}},
		{name: "swap both", deposit: &a, withdraw: &b, wantDeposit: &b, wantWithdraw: &a, expect: []types.PreferredValidatorType{types.PreferredValidatorDeposit, types.PreferredValidatorWithdraw}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := ReconcileValidatorSet(ValidatorSetInput{
				List:              list,
				Pool:              &types.StakePool{PreferredDepositValidator: tt.deposit, PreferredWithdrawValidator: tt.withdraw},
				Declared:          []solana.PublicKey{a, b},
				PreferredDeposit:  tt.wantDeposit,
				PreferredWithdraw: tt.wantWithdraw,
				Rent:              rent,
			})
			require.NoError(t, err)

			var kinds []types.PreferredValidatorType
			for _, p := range cs.Preferred {
				kinds = append(kinds, p.Kind)
				assert.True(t, types.KeyEqual(p.New, map[types.PreferredValidatorType]*solana.PublicKey{
					types.PreferredValidatorDeposit:  tt.wantDeposit,
					types.PreferredValidatorWithdraw: tt.wantWithdraw,
				}[p.Kind]))
			}
			assert.Equal(t, tt.expect, kinds)
			assert.Equal(t, len(tt.expect) == 0, cs.IsEmpty())
		})
	}
}
