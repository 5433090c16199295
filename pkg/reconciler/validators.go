package reconciler

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/types"
)

// Removal is a validator to remove from the pool. Decrease lamports are
// deactivated first, in the same transaction.
type Removal struct {
	Entry    types.ValidatorStakeInfo
	Decrease uint64
}

// SkippedRemoval is a validator that should leave the pool but cannot this
// epoch
type SkippedRemoval struct {
	Entry  types.ValidatorStakeInfo
	Reason string
}

// PreferredChange moves a preferred validator pointer. nil means None.
type PreferredChange struct {
	Kind types.PreferredValidatorType
	Old  *solana.PublicKey
	New  *solana.PublicKey
}

func (c PreferredChange) String() string {
	return fmt.Sprintf("Change %s from %s to %s", c.Kind, types.KeyString(c.Old), types.KeyString(c.New))
}

// MembershipChangeset is the validator set diff of a pool. Preferred
// validator changes apply only after additions and removals have landed.
type MembershipChangeset struct {
	Add       []solana.PublicKey
	Remove    []Removal
	Skipped   []SkippedRemoval
	Preferred []PreferredChange
}

// IsEmpty reports whether nothing needs to change
func (cs *MembershipChangeset) IsEmpty() bool {
	return len(cs.Add) == 0 && len(cs.Remove) == 0 && len(cs.Preferred) == 0
}

// ValidatorSetInput is the declared and current validator set of a pool
type ValidatorSetInput struct {
	List     *types.ValidatorList
	Pool     *types.StakePool
	Declared []solana.PublicKey

	PreferredDeposit  *solana.PublicKey
	PreferredWithdraw *solana.PublicKey

	// StakeAccounts holds the validator stake account of every entry to
	// remove, by vote account
	StakeAccounts map[solana.PublicKey]*types.StakeAccount
	Rent          types.Rent
}

// MembershipDiff returns the declared validators missing from list, in
// declared order, and the entries of list not declared, in list order.
func MembershipDiff(list *types.ValidatorList, declared []solana.PublicKey) ([]solana.PublicKey, []types.ValidatorStakeInfo) {
	want := make(map[solana.PublicKey]struct{}, len(declared))
	var add []solana.PublicKey
	for _, vote := range declared {
		if _, dup := want[vote]; dup {
			continue
		}
		want[vote] = struct{}{}
		if !list.Contains(vote) {
			add = append(add, vote)
		}
	}

	var remove []types.ValidatorStakeInfo
	for _, entry := range list.Validators {
		if _, ok := want[entry.VoteAccount]; !ok {
			remove = append(remove, entry)
		}
	}
	return add, remove
}

// ReconcileValidatorSet computes the membership and preferred validator
// changes of a pool. A removed validator still holding stake above the
// validator floor gets that stake decreased before its removal.
func ReconcileValidatorSet(in ValidatorSetInput) (*MembershipChangeset, error) {
	add, remove := MembershipDiff(in.List, in.Declared)
	cs := &MembershipChangeset{Add: add}

	floor := types.MinimumValidatorStake(in.Rent)
	for _, entry := range remove {
		switch {
		case entry.Status != types.StakeStatusActive:
			cs.Skipped = append(cs.Skipped, SkippedRemoval{Entry: entry, Reason: "already being removed (" + entry.Status.String() + ")"})
			continue
		case entry.TransientStakeLamports > 0:
			cs.Skipped = append(cs.Skipped, SkippedRemoval{Entry: entry, Reason: "transient stake in flight, retry next epoch"})
			continue
		}

		vsa, ok := in.StakeAccounts[entry.VoteAccount]
		if !ok || vsa == nil {
			return nil, fmt.Errorf("validator stake account of %s not found", entry.VoteAccount)
		}
		r := Removal{Entry: entry}
		// a delinquent validator's stake may already be deactivating, in
		// which case it is removed as is
		if !vsa.State.IsDeactivating() {
			r.Decrease = saturatingSub(vsa.Lamports, floor)
		}
		cs.Remove = append(cs.Remove, r)
	}

	for _, p := range []struct {
		kind     types.PreferredValidatorType
		old, new *solana.PublicKey
	}{
		{types.PreferredValidatorDeposit, in.Pool.PreferredDepositValidator, in.PreferredDeposit},
		{types.PreferredValidatorWithdraw, in.Pool.PreferredWithdrawValidator, in.PreferredWithdraw},
	} {
		if !types.KeyEqual(p.old, p.new) {
			cs.Preferred = append(cs.Preferred, PreferredChange{Kind: p.kind, Old: p.old, New: p.new})
		}
	}
	return cs, nil
}
