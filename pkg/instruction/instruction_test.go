package instruction

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/spoolctl/pkg/pda"
	"github.com/cuemby/spoolctl/pkg/types"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func testBuilder() (*Builder, *pda.Deriver) {
	d := pda.NewDeriver(types.ProgramSPL)
	return NewBuilder(d, PoolAccounts{
		Pool:              newKey(),
		ValidatorList:     newKey(),
		Reserve:           newKey(),
		ManagerFeeAccount: newKey(),
		PoolMint:          newKey(),
		TokenProgram:      solana.TokenProgramID,
	}), d
}

func data(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	b, err := ix.Data()
	require.NoError(t, err)
	return b
}

func TestAccountCounts(t *testing.T) {
	b, _ := testBuilder()
	staker := newKey()
	entry := types.ValidatorStakeInfo{VoteAccount: newKey(), TransientSeedSuffix: 2}

	build := func(ix solana.Instruction, err error) solana.Instruction {
		require.NoError(t, err)
		return ix
	}

	tests := []struct {
		name     string
		ix       solana.Instruction
		accounts int
	}{
		{"add validator", build(b.AddValidatorToPool(staker, entry.VoteAccount, 0)), 13},
		{"remove validator", build(b.RemoveValidatorFromPool(staker, entry)), 8},
		{"increase additional", build(b.IncreaseAdditionalValidatorStake(staker, entry, 1)), 14},
		{"decrease additional", build(b.DecreaseAdditionalValidatorStake(staker, entry, 1)), 12},
		{"set preferred", build(b.SetPreferredValidator(staker, types.PreferredValidatorDeposit, nil)), 3},
		{"set fee", build(b.SetFee(staker, types.ReferralFee(types.FeeKindSolReferral, 1))), 2},
		{"set funding authority", build(b.SetFundingAuthority(staker, types.FundingTypeSolDeposit, &staker)), 3},
		{"clear funding authority", build(b.SetFundingAuthority(staker, types.FundingTypeSolDeposit, nil)), 2},
		{"set manager", build(b.SetManager(staker, staker, staker)), 4},
		{"set staker", build(b.SetStaker(staker, staker)), 3},
		{"update list of two", build(b.UpdateValidatorListBalance(0, []types.ValidatorStakeInfo{entry, entry})), 11},
		{"update pool", build(b.UpdateStakePoolBalance()), 7},
		{"cleanup", build(b.CleanupRemovedValidatorEntries()), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.ix.Accounts(), tt.accounts)
			assert.Equal(t, types.ProgramSPL.ID, tt.ix.ProgramID())
		})
	}
}

func TestIncreaseAdditionalValidatorStakeLayout(t *testing.T) {
	b, d := testBuilder()
	staker := newKey()
	entry := types.ValidatorStakeInfo{VoteAccount: newKey(), TransientSeedSuffix: 5, ValidatorSeedSuffix: 0}

	ix, err := b.IncreaseAdditionalValidatorStake(staker, entry, 2_000_000_000)
	require.NoError(t, err)

	raw := data(t, ix)
	require.Len(t, raw, 25)
	assert.Equal(t, byte(19), raw[0])
	assert.Equal(t, uint64(2_000_000_000), binary.LittleEndian.Uint64(raw[1:9]))
	assert.Equal(t, uint64(5), binary.LittleEndian.Uint64(raw[9:17]))
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(raw[17:25]))

	accounts := ix.Accounts()
	pool := accounts[0].PublicKey
	assert.True(t, accounts[1].IsSigner)
	assert.Equal(t, d.TransientStakeAccount(pool, entry.VoteAccount, 5), accounts[6].PublicKey)
	assert.True(t, accounts[6].IsWritable)
	assert.Equal(t, d.ValidatorStakeAccount(pool, entry.VoteAccount, 0), accounts[7].PublicKey)
	assert.False(t, accounts[7].IsWritable)
}

func TestSetFeeLayout(t *testing.T) {
	b, _ := testBuilder()
	manager := newKey()

	ix, err := b.SetFee(manager, types.RatioFee(types.FeeKindEpoch, types.Fee{Denominator: 100, Numerator: 6}))
	require.NoError(t, err)
	raw := data(t, ix)
	require.Len(t, raw, 18)
	assert.Equal(t, []byte{12, 2}, raw[:2])
	assert.Equal(t, uint64(100), binary.LittleEndian.Uint64(raw[2:10]))
	assert.Equal(t, uint64(6), binary.LittleEndian.Uint64(raw[10:18]))

	ix, err = b.SetFee(manager, types.ReferralFee(types.FeeKindStakeReferral, 25))
	require.NoError(t, err)
	assert.Equal(t, []byte{12, 1, 25}, data(t, ix))
}

func TestSetPreferredValidatorLayout(t *testing.T) {
	b, _ := testBuilder()
	vote := newKey()

	ix, err := b.SetPreferredValidator(newKey(), types.PreferredValidatorWithdraw, &vote)
	require.NoError(t, err)
	raw := data(t, ix)
	require.Len(t, raw, 35)
	assert.Equal(t, []byte{5, 1, 1}, raw[:3])
	assert.Equal(t, vote[:], raw[3:])

	ix, err = b.SetPreferredValidator(newKey(), types.PreferredValidatorDeposit, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 0, 0}, data(t, ix))
}

func TestUpdateValidatorListBalanceLayout(t *testing.T) {
	b, _ := testBuilder()

	ix, err := b.UpdateValidatorListBalance(11, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 11, 0, 0, 0, 0}, data(t, ix))
}
