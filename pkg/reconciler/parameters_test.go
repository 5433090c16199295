package reconciler

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/spoolctl/pkg/types"
)

type parameterFixture struct {
	pool           *types.StakePool
	defaultDeposit solana.PublicKey
}

func newParameterFixture() parameterFixture {
	f := parameterFixture{defaultDeposit: newVote()}
	f.pool = &types.StakePool{
		Manager:               newVote(),
		Staker:                newVote(),
		ManagerFeeAccount:     newVote(),
		StakeDepositAuthority: f.defaultDeposit,
		EpochFee:              types.Fee{Denominator: 100, Numerator: 5},
		StakeWithdrawalFee:    types.Fee{Denominator: 1000, Numerator: 1},
		SolWithdrawalFee:      types.Fee{Denominator: 1000, Numerator: 1},
		StakeReferralFee:      50,
		SolReferralFee:        50,
	}
	return f
}

// target mirrors the pool, so it reconciles to nothing
func (f parameterFixture) target() PoolTarget {
	p := f.pool
	return PoolTarget{
		Manager:              p.Manager,
		Staker:               p.Staker,
		ManagerFeeAccount:    p.ManagerFeeAccount,
		SolDepositAuthority:  p.SolDepositAuthority,
		SolWithdrawAuthority: p.SolWithdrawAuthority,
		EpochFee:             p.EpochFee,
		StakeWithdrawalFee:   p.StakeWithdrawalFee,
		SolWithdrawalFee:     p.SolWithdrawalFee,
		StakeDepositFee:      p.StakeDepositFee,
		SolDepositFee:        p.SolDepositFee,
		StakeReferralFee:     p.StakeReferralFee,
		SolReferralFee:       p.SolReferralFee,
	}
}

func attributes(changes []ParameterChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Attribute()
	}
	return out
}

func TestReconcileParameters(t *testing.T) {
	other := newVote()

	tests := []struct {
		name   string
		setup  func(f parameterFixture, tg *PoolTarget)
		expect []string
	}{
		{
			name:  "no change",
			setup: func(parameterFixture, *PoolTarget) {},
		},
		{
			name: "equal rational fee",
			setup: func(_ parameterFixture, tg *PoolTarget) {
				tg.EpochFee = types.Fee{Denominator: 1000, Numerator: 50}
			},
		},
		{
			name: "zero fees with different denominators",
			setup: func(f parameterFixture, tg *PoolTarget) {
				f.pool.SolDepositFee = types.Fee{}
				tg.SolDepositFee = types.Fee{Denominator: 100}
			},
		},
		{
			name: "epoch fee",
			setup: func(_ parameterFixture, tg *PoolTarget) {
				tg.EpochFee = types.Fee{Denominator: 100, Numerator: 6}
			},
			expect: []string{"epoch fee"},
		},
		{
			name: "epoch fee already pending",
			setup: func(f parameterFixture, tg *PoolTarget) {
				tg.EpochFee = types.Fee{Denominator: 100, Numerator: 6}
				f.pool.NextEpochFee = types.FutureEpochFee{Kind: types.FutureEpochFeeTwo, Fee: types.Fee{Denominator: 50, Numerator: 3}}
			},
		},
		{
			name: "different fee pending",
			setup: func(f parameterFixture, tg *PoolTarget) {
				tg.SolWithdrawalFee = types.Fee{Denominator: 100, Numerator: 1}
				f.pool.NextSolWithdrawalFee = types.FutureEpochFee{Kind: types.FutureEpochFeeOne, Fee: types.Fee{Denominator: 100, Numerator: 2}}
			},
			expect: []string{"SOL withdrawal fee"},
		},
		{
			name: "stake deposit authority set to the default",
			setup: func(f parameterFixture, tg *PoolTarget) {
				def := f.defaultDeposit
				tg.StakeDepositAuthority = &def
			},
		},
		{
			name: "stake deposit authority set to a custom key",
			setup: func(_ parameterFixture, tg *PoolTarget) {
				tg.StakeDepositAuthority = &other
			},
			expect: []string{"stake deposit authority"},
		},
		{
			name: "custom stake deposit authority cleared",
			setup: func(f parameterFixture, tg *PoolTarget) {
				f.pool.StakeDepositAuthority = other
			},
			expect: []string{"stake deposit authority"},
		},
		{
			name: "full ordering",
			setup: func(_ parameterFixture, tg *PoolTarget) {
				tg.Manager = newVote()
				tg.Staker = newVote()
				tg.ManagerFeeAccount = newVote()
				tg.SolWithdrawAuthority = &other
				tg.SolDepositAuthority = &other
				tg.StakeReferralFee = 0
				tg.StakeDepositFee = types.Fee{Denominator: 100, Numerator: 1}
				tg.SolReferralFee = 10
				tg.SolDepositFee = types.Fee{Denominator: 100, Numerator: 1}
				tg.StakeWithdrawalFee = types.Fee{Denominator: 100, Numerator: 1}
				tg.SolWithdrawalFee = types.Fee{Denominator: 100, Numerator: 1}
				tg.EpochFee = types.Fee{Denominator: 100, Numerator: 1}
			},
			expect: []string{
				"SOL deposit authority",
				"SOL withdraw authority",
				"epoch fee",
				"SOL withdrawal fee",
				"stake withdrawal fee",
				"SOL deposit fee",
				"SOL referral fee",
				"stake deposit fee",
				"stake referral fee",
				"manager fee account",
				"staker",
				"manager",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newParameterFixture()
			tg := f.target()
			tt.setup(f, &tg)

			changes := ReconcileParameters(f.pool, tg, f.defaultDeposit)
			if len(tt.expect) == 0 {
				assert.Empty(t, changes)
				return
			}
			assert.Equal(t, tt.expect, attributes(changes))
		})
	}
}

func TestManagerChangeIsLast(t *testing.T) {
	f := newParameterFixture()
	tg := f.target()
	tg.Manager = newVote()
	tg.Staker = newVote()
	tg.EpochFee = types.Fee{Denominator: 10, Numerator: 1}
	other := newVote()
	tg.SolDepositAuthority = &other

	changes := ReconcileParameters(f.pool, tg, f.defaultDeposit)
	require.NotEmpty(t, changes)
	for i, c := range changes {
		if c.Kind == ManagerChange {
			assert.Equal(t, len(changes)-1, i)
		}
	}
	last := changes[len(changes)-1]
	assert.Equal(t, ManagerChange, last.Kind)
	assert.Equal(t, f.pool.Manager, *last.Old)
	assert.Equal(t, tg.Manager, *last.New)
}

func TestParameterChangeString(t *testing.T) {
	fee := ParameterChange{
		Kind:   FeeChange,
		OldFee: types.RatioFee(types.FeeKindEpoch, types.Fee{Denominator: 100, Numerator: 5}),
		NewFee: types.RatioFee(types.FeeKindEpoch, types.Fee{Denominator: 100, Numerator: 6}),
	}
	assert.Equal(t, "Change epoch fee from 5/100 to 6/100", fee.String())

	referral := ParameterChange{
		Kind:   FeeChange,
		OldFee: types.ReferralFee(types.FeeKindSolReferral, 50),
		NewFee: types.ReferralFee(types.FeeKindSolReferral, 0),
	}
	assert.Equal(t, "Change SOL referral fee from 50% to 0%", referral.String())

	key := newVote()
	auth := ParameterChange{Kind: FundingAuthorityChange, Funding: types.FundingTypeSolDeposit, New: &key}
	assert.Equal(t, "Change SOL deposit authority from None to "+key.String(), auth.String())
}
