package reconciler

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/batch"
	"github.com/cuemby/spoolctl/pkg/instruction"
	"github.com/cuemby/spoolctl/pkg/log"
	"github.com/cuemby/spoolctl/pkg/metrics"
	"github.com/cuemby/spoolctl/pkg/pda"
	"github.com/cuemby/spoolctl/pkg/types"
)

// Planner turns reconciler changes into pool operations
type Planner struct {
	address solana.PublicKey
	pool    *types.StakePool
	derive  *pda.Deriver
	build   *instruction.Builder
}

// NewPlanner creates a planner for the pool at address, owned by program
func NewPlanner(program types.Program, address solana.PublicKey, pool *types.StakePool) *Planner {
	derive := pda.NewDeriver(program)
	return &Planner{
		address: address,
		pool:    pool,
		derive:  derive,
		build:   instruction.NewBuilder(derive, instruction.PoolAccountsOf(address, pool)),
	}
}

// DefaultDepositAuthority is the derived stake deposit authority of the pool
func (p *Planner) DefaultDepositAuthority() solana.PublicKey {
	return p.derive.DepositAuthority(p.address)
}

// ValidatorStakeAccount returns the validator stake account of entry
func (p *Planner) ValidatorStakeAccount(entry types.ValidatorStakeInfo) solana.PublicKey {
	return p.derive.ValidatorStakeAccount(p.address, entry.VoteAccount, entry.ValidatorSeedSuffix)
}

// TransientStakeAccount returns the transient stake account of entry
func (p *Planner) TransientStakeAccount(entry types.ValidatorStakeInfo) solana.PublicKey {
	return p.derive.TransientStakeAccount(p.address, entry.VoteAccount, entry.TransientSeedSuffix)
}

// DelegationOperations maps increases and decreases to stake operations
// signed by staker. Changes without an operation are counted and dropped.
func (p *Planner) DelegationOperations(staker solana.PublicKey, changes []DelegationChange) ([]batch.Operation, error) {
	var ops []batch.Operation
	for _, c := range changes {
		metrics.ChangesTotal.WithLabelValues("delegation", c.Kind.String()).Inc()

		var (
			ix    solana.Instruction
			err   error
			label string
		)
		switch c.Kind {
		case Increase, PartialIncrease:
			ix, err = p.build.IncreaseAdditionalValidatorStake(staker, c.Entry, c.Amount)
			label = fmt.Sprintf("Increase stake of %s by %d", c.Vote(), c.Amount)
		case Decrease:
			ix, err = p.build.DecreaseAdditionalValidatorStake(staker, c.Entry, c.Amount)
			label = fmt.Sprintf("Decrease stake of %s by %d", c.Vote(), c.Amount)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build stake change for %s: %w", c.Vote(), err)
		}
		logger := log.WithValidator(c.Vote().String())
		logger.Debug().
			Str("kind", c.Kind.String()).
			Uint64("projected", c.Projected).
			Uint64("amount", c.Amount).
			Str("phase", c.Phase.String()).
			Msg("Planned stake change")
		ops = append(ops, batch.Operation{Kind: batch.KindStakeChange, Label: label, Instruction: ix})
	}
	return ops, nil
}

// ParameterOperations maps parameter changes to manager operations, in
// order. Ownership changes use target for the values SetManager needs
// alongside the changed one.
func (p *Planner) ParameterOperations(manager solana.PublicKey, target PoolTarget, changes []ParameterChange) ([]batch.Operation, error) {
	ops := make([]batch.Operation, 0, len(changes))
	for _, c := range changes {
		metrics.ChangesTotal.WithLabelValues("parameters", c.Kind.String()).Inc()

		var (
			ix  solana.Instruction
			err error
		)
		switch c.Kind {
		case FeeChange:
			ix, err = p.build.SetFee(manager, c.NewFee)
		case FundingAuthorityChange:
			ix, err = p.build.SetFundingAuthority(manager, c.Funding, c.New)
		case ManagerFeeAccountChange:
			ix, err = p.build.SetManager(manager, manager, target.ManagerFeeAccount)
		case StakerChange:
			ix, err = p.build.SetStaker(manager, target.Staker)
		case ManagerChange:
			ix, err = p.build.SetManager(manager, target.Manager, target.ManagerFeeAccount)
		default:
			return nil, fmt.Errorf("unknown parameter change %d", c.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build %s change: %w", c.Attribute(), err)
		}
		ops = append(ops, batch.Operation{Kind: batch.KindParameter, Label: c.String(), Instruction: ix})
	}
	return ops, nil
}

// MembershipOperations maps a membership changeset to removals followed by
// additions, signed by staker. A removal's decrease is bound to the removal
// so both land in the same transaction. Preferred validator changes are
// left to PreferredOperations.
func (p *Planner) MembershipOperations(staker solana.PublicKey, cs *MembershipChangeset) ([]batch.Operation, error) {
	var ops []batch.Operation
	for _, r := range cs.Remove {
		metrics.ChangesTotal.WithLabelValues("validators", "remove").Inc()
		vote := r.Entry.VoteAccount

		if r.Decrease > 0 {
			ix, err := p.build.DecreaseAdditionalValidatorStake(staker, r.Entry, r.Decrease)
			if err != nil {
				return nil, fmt.Errorf("failed to build decrease for %s: %w", vote, err)
			}
			ops = append(ops, batch.Operation{
				Kind:        batch.KindRemoveValidator,
				Label:       fmt.Sprintf("Decrease stake of %s by %d", vote, r.Decrease),
				Instruction: ix,
				BindNext:    true,
			})
		}
		ix, err := p.build.RemoveValidatorFromPool(staker, r.Entry)
		if err != nil {
			return nil, fmt.Errorf("failed to build removal of %s: %w", vote, err)
		}
		ops = append(ops, batch.Operation{
			Kind:        batch.KindRemoveValidator,
			Label:       fmt.Sprintf("Remove validator %s", vote),
			Instruction: ix,
		})
	}
	for range cs.Skipped {
		metrics.ChangesTotal.WithLabelValues("validators", "skipped").Inc()
	}

	for _, vote := range cs.Add {
		metrics.ChangesTotal.WithLabelValues("validators", "add").Inc()
		ix, err := p.build.AddValidatorToPool(staker, vote, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to build addition of %s: %w", vote, err)
		}
		ops = append(ops, batch.Operation{
			Kind:        batch.KindAddValidator,
			Label:       fmt.Sprintf("Add validator %s", vote),
			Instruction: ix,
		})
	}
	return ops, nil
}

// PreferredOperations maps preferred validator changes to operations
// signed by staker
func (p *Planner) PreferredOperations(staker solana.PublicKey, changes []PreferredChange) ([]batch.Operation, error) {
	ops := make([]batch.Operation, 0, len(changes))
	for _, c := range changes {
		metrics.ChangesTotal.WithLabelValues("validators", "preferred").Inc()
		ix, err := p.build.SetPreferredValidator(staker, c.Kind, c.New)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s change: %w", c.Kind, err)
		}
		ops = append(ops, batch.Operation{Kind: batch.KindPreferredValidator, Label: c.String(), Instruction: ix})
	}
	return ops, nil
}

// UpdateOperations maps an update plan to the update crank: one list
// balance update per chunk, then the pool balance update bound to the
// cleanup of removed entries.
func (p *Planner) UpdateOperations(plan *UpdatePlan) ([]batch.Operation, error) {
	var ops []batch.Operation
	for _, chunk := range plan.Chunks {
		ix, err := p.build.UpdateValidatorListBalance(chunk.StartIndex, chunk.Entries)
		if err != nil {
			return nil, fmt.Errorf("failed to build validator list update at %d: %w", chunk.StartIndex, err)
		}
		ops = append(ops, batch.Operation{
			Kind:        batch.KindUpdateValidatorList,
			Label:       fmt.Sprintf("Update validators %d-%d", chunk.StartIndex, int(chunk.StartIndex)+len(chunk.Entries)-1),
			Instruction: ix,
		})
	}
	if !plan.UpdatePool {
		return ops, nil
	}

	update, err := p.build.UpdateStakePoolBalance()
	if err != nil {
		return nil, fmt.Errorf("failed to build pool balance update: %w", err)
	}
	cleanup, err := p.build.CleanupRemovedValidatorEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to build removed entry cleanup: %w", err)
	}
	return append(ops,
		batch.Operation{Kind: batch.KindUpdatePool, Label: "Update pool balance", Instruction: update, BindNext: true},
		batch.Operation{Kind: batch.KindUpdatePool, Label: "Clean up removed validators", Instruction: cleanup},
	), nil
}
