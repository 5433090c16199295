package reconciler

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/spoolctl/pkg/batch"
	"github.com/cuemby/spoolctl/pkg/ledger/ledgertest"
	"github.com/cuemby/spoolctl/pkg/metrics"
	"github.com/cuemby/spoolctl/pkg/types"
)

func newPlanner(t *testing.T) (*Planner, *ledgertest.Pool) {
	t.Helper()
	l := ledgertest.New(testEpoch)
	pool := l.NewPool(types.ProgramSPL, newVote(), newVote(), 10_000_000_000)
	return NewPlanner(pool.Program, pool.Address, pool.State), pool
}

func discriminant(t *testing.T, op batch.Operation) byte {
	t.Helper()
	data, err := op.Instruction.Data()
	require.NoError(t, err)
	require.NotEmpty(t, data)
	return data[0]
}

func TestPlannerDerivedAccounts(t *testing.T) {
	p, pool := newPlanner(t)
	e := types.ValidatorStakeInfo{VoteAccount: newVote(), TransientSeedSuffix: 3}

	assert.Equal(t, pool.State.StakeDepositAuthority, p.DefaultDepositAuthority())
	assert.Equal(t, pool.ValidatorStakeAccount(e), p.ValidatorStakeAccount(e))
	assert.Equal(t, pool.TransientStakeAccount(e), p.TransientStakeAccount(e))
}

func TestDelegationOperations(t *testing.T) {
	p, pool := newPlanner(t)
	a, b, c := newVote(), newVote(), newVote()

	before := testutil.ToFloat64(metrics.ChangesTotal.WithLabelValues("delegation", "no-change"))
	ops, err := p.DelegationOperations(pool.State.Staker, []DelegationChange{
		{Kind: Increase, Entry: entry(a, types.StakeStatusActive), Amount: 5},
		{Kind: NoChange, Entry: entry(b, types.StakeStatusActive)},
		{Kind: Decrease, Entry: entry(c, types.StakeStatusActive), Amount: 7},
		{Kind: InsufficientReserve, Entry: entry(b, types.StakeStatusActive), Shortfall: 9},
	})
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, batch.KindStakeChange, ops[0].Kind)
	assert.Equal(t, byte(19), discriminant(t, ops[0]))
	assert.Contains(t, ops[0].Label, a.String())
	assert.Equal(t, byte(20), discriminant(t, ops[1]))
	assert.Contains(t, ops[1].Label, c.String())
	assert.Equal(t, pool.Program.ID, ops[0].Instruction.ProgramID())

	after := testutil.ToFloat64(metrics.ChangesTotal.WithLabelValues("delegation", "no-change"))
	assert.Equal(t, before+1, after)
}

func TestParameterOperations(t *testing.T) {
	p, pool := newPlanner(t)
	target := PoolTarget{
		Manager:           newVote(),
		Staker:            newVote(),
		ManagerFeeAccount: newVote(),
		EpochFee:          types.Fee{Denominator: 100, Numerator: 1},
		StakeReferralFee:  pool.State.StakeReferralFee,
		SolReferralFee:    pool.State.SolReferralFee,
	}
	changes := ReconcileParameters(pool.State, target, p.DefaultDepositAuthority())

	ops, err := p.ParameterOperations(pool.State.Manager, target, changes)
	require.NoError(t, err)
	require.Len(t, ops, len(changes))

	var got []byte
	for _, op := range ops {
		assert.Equal(t, batch.KindParameter, op.Kind)
		got = append(got, discriminant(t, op))
	}
	// fee, fee account, staker, manager
	assert.Equal(t, []byte{12, 11, 13, 11}, got)
	assert.Equal(t, changes[len(changes)-1].String(), ops[len(ops)-1].Label)
}

func TestMembershipOperationsDecreaseBeforeRemoval(t *testing.T) {
	p, pool := newPlanner(t)
	staked, bare, added := newVote(), newVote(), newVote()

	cs := &MembershipChangeset{
		Add: []solana.PublicKey{added},
		Remove: []Removal{
			{Entry: entry(staked, types.StakeStatusActive), Decrease: 2_000_000_000},
			{Entry: entry(bare, types.StakeStatusActive)},
		},
	}
	ops, err := p.MembershipOperations(pool.State.Staker, cs)
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, []byte{20, 2, 2, 1}, []byte{
		discriminant(t, ops[0]), discriminant(t, ops[1]), discriminant(t, ops[2]), discriminant(t, ops[3]),
	})
	assert.True(t, ops[0].BindNext)
	assert.False(t, ops[1].BindNext)
	assert.Equal(t, batch.KindRemoveValidator, ops[0].Kind)
	assert.Equal(t, batch.KindAddValidator, ops[3].Kind)

	// every removal of a staked validator is preceded by its decrease
	// within the same chunk
	for _, chunk := range batch.Chunk(ops) {
		for i, op := range chunk {
			if discriminant(t, op) == 2 && op.Label == "Remove validator "+staked.String() {
				require.Greater(t, i, 0)
				assert.Equal(t, byte(20), discriminant(t, chunk[i-1]))
			}
		}
	}
}

func TestPreferredOperations(t *testing.T) {
	p, pool := newPlanner(t)
	v := newVote()

	ops, err := p.PreferredOperations(pool.State.Staker, []PreferredChange{
		{Kind: types.PreferredValidatorDeposit, New: &v},
		{Kind: types.PreferredValidatorWithdraw, Old: &v},
	})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.Equal(t, batch.KindPreferredValidator, op.Kind)
		assert.Equal(t, byte(5), discriminant(t, op))
	}
	assert.Equal(t, "Change preferred withdraw validator from "+v.String()+" to None", ops[1].Label)
}

func TestUpdateOperations(t *testing.T) {
	p, _ := newPlanner(t)
	list := listOf(15, testEpoch-1)
	plan := PlanUpdate(&types.StakePool{LastUpdateEpoch: testEpoch - 1}, list, testEpoch, UpdateIfNeeded)

	ops, err := p.UpdateOperations(plan)
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, "Update validators 0-10", ops[0].Label)
	assert.Equal(t, "Update validators 11-14", ops[1].Label)
	assert.Equal(t, batch.KindUpdatePool, ops[2].Kind)
	assert.True(t, ops[2].BindNext)
	assert.Equal(t, byte(8), discriminant(t, ops[3]))

	chunks := batch.Chunk(ops)
	assert.Len(t, chunks, 3, "list chunks are sent one per transaction, pool update and cleanup together")

	ops, err = p.UpdateOperations(&UpdatePlan{})
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestPrintDelegation(t *testing.T) {
	a, b := newVote(), newVote()
	var buf bytes.Buffer
	PrintDelegation(&buf, []DelegationChange{
		{Kind: Increase, Entry: entry(a, types.StakeStatusActive), Amount: 10},
		{Kind: PartialIncrease, Entry: entry(b, types.StakeStatusActive), Amount: 5, Shortfall: 7},
	})

	out := buf.String()
	assert.Contains(t, out, a.String()+": increase by 10")
	assert.Contains(t, out, "5, 7 short of target")
	assert.Contains(t, out, "short by 7 lamports in total")
}

func TestPrintDelegationRemainderHasNoShortfall(t *testing.T) {
	var buf bytes.Buffer
	PrintDelegation(&buf, []DelegationChange{
		{Kind: PartialIncrease, Entry: entry(newVote(), types.StakeStatusActive), Target: Target{Remainder: true}, Amount: 5, Shortfall: 1 << 60},
	})
	assert.NotContains(t, buf.String(), "short")
}

func TestPrintMembership(t *testing.T) {
	staked, skipped, added := newVote(), newVote(), newVote()
	var buf bytes.Buffer
	PrintMembership(&buf, &MembershipChangeset{
		Add:     []solana.PublicKey{added},
		Remove:  []Removal{{Entry: entry(staked, types.StakeStatusActive), Decrease: 3}},
		Skipped: []SkippedRemoval{{Entry: entry(skipped, types.StakeStatusReadyForRemoval), Reason: "already being removed"}},
	})

	out := buf.String()
	assert.Contains(t, out, staked.String()+": decrease by 3, then remove")
	assert.Contains(t, out, skipped.String()+": not removed, already being removed")
	assert.Contains(t, out, added.String()+": add")

	buf.Reset()
	PrintMembership(&buf, &MembershipChangeset{})
	assert.Contains(t, buf.String(), "up to date")
}
