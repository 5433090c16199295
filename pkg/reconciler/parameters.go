package reconciler

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/types"
)

// PoolTarget is the declared configuration of a pool's parameters
type PoolTarget struct {
	Manager           solana.PublicKey
	Staker            solana.PublicKey
	ManagerFeeAccount solana.PublicKey

	// nil clears the authority; the stake deposit authority then falls back
	// to the pool's default deposit authority
	StakeDepositAuthority *solana.PublicKey
	SolDepositAuthority   *solana.PublicKey
	SolWithdrawAuthority  *solana.PublicKey

	EpochFee           types.Fee
	StakeWithdrawalFee types.Fee
	SolWithdrawalFee   types.Fee
	StakeDepositFee    types.Fee
	SolDepositFee      types.Fee
	StakeReferralFee   uint8
	SolReferralFee     uint8
}

// ParameterChangeKind identifies which parameter a change touches
type ParameterChangeKind int

const (
	FeeChange ParameterChangeKind = iota
	FundingAuthorityChange
	ManagerFeeAccountChange
	StakerChange
	ManagerChange
)

func (k ParameterChangeKind) String() string {
	switch k {
	case FeeChange:
		return "fee"
	case FundingAuthorityChange:
		return "funding-authority"
	case ManagerFeeAccountChange:
		return "manager-fee-account"
	case StakerChange:
		return "staker"
	case ManagerChange:
		return "manager"
	default:
		return "unknown"
	}
}

// ParameterChange is one parameter to change, with old and new values
type ParameterChange struct {
	Kind ParameterChangeKind

	// set for FeeChange
	OldFee types.FeeType
	NewFee types.FeeType

	// set for FundingAuthorityChange
	Funding types.FundingType

	// set for every other kind; nil means None
	Old *solana.PublicKey
	New *solana.PublicKey
}

// Attribute names the parameter
func (c ParameterChange) Attribute() string {
	switch c.Kind {
	case FeeChange:
		return c.OldFee.Kind.String()
	case FundingAuthorityChange:
		return c.Funding.String()
	case ManagerFeeAccountChange:
		return "manager fee account"
	case StakerChange:
		return "staker"
	default:
		return "manager"
	}
}

func (c ParameterChange) String() string {
	if c.Kind == FeeChange {
		return fmt.Sprintf("Change %s from %s to %s", c.Attribute(), c.OldFee.ValueString(), c.NewFee.ValueString())
	}
	return fmt.Sprintf("Change %s from %s to %s", c.Attribute(), types.KeyString(c.Old), types.KeyString(c.New))
}

// ReconcileParameters lists the changes that bring current to target, in
// the order they must be applied. defaultDepositAuthority is the pool's
// derived deposit authority, which counts as no stake deposit authority.
// A manager change, when present, is always last so that every earlier
// change is still authorized by the current manager.
func ReconcileParameters(current *types.StakePool, target PoolTarget, defaultDepositAuthority solana.PublicKey) []ParameterChange {
	var changes []ParameterChange

	normalize := func(k *solana.PublicKey) *solana.PublicKey {
		if k == nil || k.Equals(defaultDepositAuthority) {
			return nil
		}
		return k
	}
	currentStakeDeposit := current.StakeDepositAuthority
	for _, f := range []struct {
		kind     types.FundingType
		old, new *solana.PublicKey
	}{
		{types.FundingTypeStakeDeposit, normalize(&currentStakeDeposit), normalize(target.StakeDepositAuthority)},
		{types.FundingTypeSolDeposit, current.SolDepositAuthority, target.SolDepositAuthority},
		{types.FundingTypeSolWithdraw, current.SolWithdrawAuthority, target.SolWithdrawAuthority},
	} {
		if !types.KeyEqual(f.old, f.new) {
			changes = append(changes, ParameterChange{Kind: FundingAuthorityChange, Funding: f.kind, Old: f.old, New: f.new})
		}
	}

	// Withdrawal-class fee changes take effect one or two epochs later. A
	// pending change to the target value is not submitted again.
	for _, f := range []struct {
		kind     types.FeeKind
		old, new types.Fee
		next     types.FutureEpochFee
	}{
		{types.FeeKindEpoch, current.EpochFee, target.EpochFee, current.NextEpochFee},
		{types.FeeKindSolWithdrawal, current.SolWithdrawalFee, target.SolWithdrawalFee, current.NextSolWithdrawalFee},
		{types.FeeKindStakeWithdrawal, current.StakeWithdrawalFee, target.StakeWithdrawalFee, current.NextStakeWithdrawalFee},
	} {
		if f.old.Equal(f.new) {
			continue
		}
		if pending, ok := f.next.Pending(); ok && pending.Equal(f.new) {
			continue
		}
		changes = append(changes, ParameterChange{Kind: FeeChange, OldFee: types.RatioFee(f.kind, f.old), NewFee: types.RatioFee(f.kind, f.new)})
	}

	for _, f := range []struct{ old, new types.FeeType }{
		{types.RatioFee(types.FeeKindSolDeposit, current.SolDepositFee), types.RatioFee(types.FeeKindSolDeposit, target.SolDepositFee)},
		{types.ReferralFee(types.FeeKindSolReferral, current.SolReferralFee), types.ReferralFee(types.FeeKindSolReferral, target.SolReferralFee)},
		{types.RatioFee(types.FeeKindStakeDeposit, current.StakeDepositFee), types.RatioFee(types.FeeKindStakeDeposit, target.StakeDepositFee)},
		{types.ReferralFee(types.FeeKindStakeReferral, current.StakeReferralFee), types.ReferralFee(types.FeeKindStakeReferral, target.StakeReferralFee)},
	} {
		if !f.old.Equal(f.new) {
			changes = append(changes, ParameterChange{Kind: FeeChange, OldFee: f.old, NewFee: f.new})
		}
	}

	if !current.ManagerFeeAccount.Equals(target.ManagerFeeAccount) {
		changes = append(changes, keyChange(ManagerFeeAccountChange, current.ManagerFeeAccount, target.ManagerFeeAccount))
	}
	if !current.Staker.Equals(target.Staker) {
		changes = append(changes, keyChange(StakerChange, current.Staker, target.Staker))
	}
	if !current.Manager.Equals(target.Manager) {
		changes = append(changes, keyChange(ManagerChange, current.Manager, target.Manager))
	}
	return changes
}

func keyChange(kind ParameterChangeKind, old, new solana.PublicKey) ParameterChange {
	return ParameterChange{Kind: kind, Old: &old, New: &new}
}
