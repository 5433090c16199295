package reconciler

import (
	"github.com/cuemby/spoolctl/pkg/types"
)

// TransientPhase is the phase of a validator's in-flight stake change
type TransientPhase int

const (
	PhaseNone TransientPhase = iota
	PhaseActivating
	PhaseDeactivating
)

func (p TransientPhase) String() string {
	switch p {
	case PhaseActivating:
		return "activating"
	case PhaseDeactivating:
		return "deactivating"
	default:
		return "none"
	}
}

// Project returns the stake a validator will hold next epoch, and the
// phase of its transient stake account. A transient account delegated in
// the current epoch is still activating and adds to committed stake; any
// other transient account is deactivating and subtracts from it.
func Project(committed uint64, transient *types.StakeAccount, epoch uint64) (uint64, TransientPhase) {
	if transient == nil {
		return committed, PhaseNone
	}
	if transient.State.Kind == types.StakeStateStake && transient.State.Delegation.ActivationEpoch == epoch {
		return saturatingAdd(committed, transient.Lamports), PhaseActivating
	}
	return saturatingSub(committed, transient.Lamports), PhaseDeactivating
}

// Committed is the stake of a validator stake account above the floor the
// pool keeps in it.
func Committed(validator *types.StakeAccount, rent types.Rent) uint64 {
	return saturatingSub(validator.Lamports, types.MinimumValidatorStake(rent))
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
