package reconciler

import (
	"fmt"
	"math"
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/types"
)

// Target is the declared delegation of one validator
type Target struct {
	Vote      solana.PublicKey
	Lamports  uint64
	Remainder bool
}

// Stake returns the stake to aim for. The remainder target asks for
// everything, and is served last.
func (t Target) Stake() uint64 {
	if t.Remainder {
		return math.MaxUint64
	}
	return t.Lamports
}

// OrderTargets validates a delegation scheme and moves the remainder
// target, if any, to the end. The relative order of the other targets is
// kept, since it decides who is served first when the reserve runs short.
func OrderTargets(targets []Target) ([]Target, error) {
	seen := make(map[solana.PublicKey]struct{}, len(targets))
	remainders := 0
	for _, t := range targets {
		if _, ok := seen[t.Vote]; ok {
			return nil, fmt.Errorf("%w: validator %s declared more than once", ErrValidation, t.Vote)
		}
		seen[t.Vote] = struct{}{}
		if t.Remainder {
			remainders++
		}
	}
	if remainders > 1 {
		return nil, fmt.Errorf("%w: %d validators target the remainder, at most one may", ErrValidation, remainders)
	}

	ordered := make([]Target, len(targets))
	copy(ordered, targets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].Remainder && ordered[j].Remainder
	})
	return ordered, nil
}

// DelegationChangeKind is the outcome of comparing a validator's projected
// stake to its target
type DelegationChangeKind int

const (
	NoChange DelegationChangeKind = iota
	Increase
	Decrease
	PartialIncrease
	InsufficientReserve
	TransientConflict
	ValidatorBeingRemoved
)

func (k DelegationChangeKind) String() string {
	switch k {
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	case PartialIncrease:
		return "partial-increase"
	case InsufficientReserve:
		return "insufficient-reserve"
	case TransientConflict:
		return "transient-conflict"
	case ValidatorBeingRemoved:
		return "being-removed"
	default:
		return "no-change"
	}
}

// HasOperation reports whether the change is carried out on the ledger
func (k DelegationChangeKind) HasOperation() bool {
	return k == Increase || k == Decrease || k == PartialIncrease
}

// DelegationSource is everything known about one validator for a pass
type DelegationSource struct {
	Entry     types.ValidatorStakeInfo
	Validator *types.StakeAccount
	Transient *types.StakeAccount
	Target    Target
}

// DelegationChange is the decision for one validator
type DelegationChange struct {
	Kind      DelegationChangeKind
	Entry     types.ValidatorStakeInfo
	Target    Target
	Projected uint64
	Phase     TransientPhase

	// Amount is the lamports to move, Shortfall what the reserve could not cover
	Amount    uint64
	Shortfall uint64
}

// Vote returns the vote account of the validator
func (c DelegationChange) Vote() solana.PublicKey {
	return c.Entry.VoteAccount
}

// TransientSeed returns the seed of the validator's transient stake account
func (c DelegationChange) TransientSeed() uint64 {
	return c.Entry.TransientSeedSuffix
}

// DelegationInput holds the pool-wide values of a delegation pass
type DelegationInput struct {
	Sources         []DelegationSource
	ReserveLamports uint64
	Epoch           uint64
	Rent            types.Rent
}

// ReserveMargin is kept in the reserve on top of what increases draw: the
// reserve's own rent-exempt reserve and that of a new transient account.
func ReserveMargin(rent types.Rent) uint64 {
	return 2 * rent.StakeRentExemption()
}

// ReconcileDelegation decides the stake change of every source, in order.
// Increases draw from a single running reserve budget, so earlier sources
// are served first; the budget never drops below ReserveMargin.
func ReconcileDelegation(in DelegationInput) []DelegationChange {
	budget := in.ReserveLamports
	margin := ReserveMargin(in.Rent)

	changes := make([]DelegationChange, 0, len(in.Sources))
	for _, src := range in.Sources {
		c := DelegationChange{Entry: src.Entry, Target: src.Target}

		if src.Entry.Status != types.StakeStatusActive {
			c.Kind = ValidatorBeingRemoved
			changes = append(changes, c)
			continue
		}

		c.Projected, c.Phase = Project(Committed(src.Validator, in.Rent), src.Transient, in.Epoch)
		target := src.Target.Stake()

		switch {
		case c.Projected > target:
			if c.Phase == PhaseActivating {
				c.Kind = TransientConflict
			} else {
				c.Kind = Decrease
				c.Amount = c.Projected - target
			}
		case c.Projected == target:
			c.Kind = NoChange
		default:
			if c.Phase == PhaseDeactivating {
				c.Kind = TransientConflict
				break
			}
			desired := target - c.Projected
			available := saturatingSub(budget, margin)
			actual := desired
			if available < actual {
				actual = available
			}
			budget -= actual

			c.Amount = actual
			c.Shortfall = desired - actual
			switch {
			case actual == desired:
				c.Kind = Increase
			case actual == 0:
				c.Kind = InsufficientReserve
			default:
				c.Kind = PartialIncrease
			}
		}
		changes = append(changes, c)
	}
	return changes
}
