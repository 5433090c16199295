package syncer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/batch"
	"github.com/cuemby/spoolctl/pkg/config"
	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/metrics"
	"github.com/cuemby/spoolctl/pkg/reconciler"
	"github.com/cuemby/spoolctl/pkg/signer"
	"github.com/cuemby/spoolctl/pkg/types"
)

// SyncDelegation moves stake between the reserve and the declared
// validators until each holds its target. Validators of the pool left out
// of the config are not touched.
func (s *Syncer) SyncDelegation(ctx context.Context, c *config.DelegationConfig) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "sync-delegation")

	targets, err := config.ValidateDelegation(c)
	if err != nil {
		return err
	}
	address, err := c.Address()
	if err != nil {
		return err
	}
	staker, err := signer.ResolveAuthorizer(c.Staker, s.cfg.Mode, s.cfg.Payer)
	if err != nil {
		return err
	}

	snap, err := s.fetch(ctx, address, nil)
	if err != nil {
		return err
	}
	if err := authorize("staker", snap.Pool.Staker, staker); err != nil {
		return err
	}
	planner := reconciler.NewPlanner(snap.Program, address, snap.Pool)
	sources, err := s.sources(ctx, snap, planner, targets)
	if err != nil {
		return err
	}

	changes := reconciler.ReconcileDelegation(reconciler.DelegationInput{
		Sources:         sources,
		ReserveLamports: snap.Reserve.Lamports,
		Epoch:           snap.Clock.Epoch,
		Rent:            snap.Rent,
	})
	reconciler.PrintDelegation(s.cfg.Out, changes)

	ops, err := planner.DelegationOperations(staker.PublicKey(), changes)
	if err != nil {
		return err
	}
	return s.execute(ctx, "sync-delegation", address,
		s.plan("sync delegation", signer.NewSet(s.cfg.Payer, staker), ops))
}

// sources pairs each target with its validator list entry and stake
// accounts. A target outside the pool is a validation error.
func (s *Syncer) sources(ctx context.Context, snap *ledger.PoolSnapshot, planner *reconciler.Planner, targets []reconciler.Target) ([]reconciler.DelegationSource, error) {
	sources := make([]reconciler.DelegationSource, len(targets))
	keys := make([]solana.PublicKey, 0, 2*len(targets))
	for i, t := range targets {
		entry, ok := snap.ValidatorList.Find(t.Vote)
		if !ok {
			return nil, fmt.Errorf("%w: validator %s is not part of pool %s", reconciler.ErrValidation, t.Vote, snap.Address)
		}
		sources[i] = reconciler.DelegationSource{Entry: entry, Target: t}
		keys = append(keys, planner.ValidatorStakeAccount(entry), planner.TransientStakeAccount(entry))
	}
	accounts, err := ledger.FetchStakeAccounts(ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	for i := range sources {
		sources[i].Validator, sources[i].Transient = accounts[2*i], accounts[2*i+1]
		if sources[i].Validator == nil {
			return nil, fmt.Errorf("stake account %s of validator %s not found", keys[2*i], sources[i].Entry.VoteAccount)
		}
	}
	return sources, nil
}

// IncreaseValidatorStake moves amount from the reserve to one validator of
// the pool of c
func (s *Syncer) IncreaseValidatorStake(ctx context.Context, c *config.PoolConfig, vote solana.PublicKey, amount reconciler.StakeAmount) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "increase-validator-stake")
	return s.adjust(ctx, "increase-validator-stake", c, vote, func(projected uint64, snap *ledger.PoolSnapshot) reconciler.Target {
		return reconciler.IncreaseTarget(vote, projected, amount, snap.Reserve.Lamports, snap.Rent)
	})
}

// DecreaseValidatorStake moves amount from one validator of the pool of c
// back to the reserve
func (s *Syncer) DecreaseValidatorStake(ctx context.Context, c *config.PoolConfig, vote solana.PublicKey, amount reconciler.StakeAmount) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "decrease-validator-stake")
	return s.adjust(ctx, "decrease-validator-stake", c, vote, func(projected uint64, _ *ledger.PoolSnapshot) reconciler.Target {
		return reconciler.DecreaseTarget(vote, projected, amount)
	})
}

// adjust changes the stake of a single validator to the target picked from
// its projected stake, with the same rules as sync-delegation
func (s *Syncer) adjust(ctx context.Context, command string, c *config.PoolConfig, vote solana.PublicKey,
	target func(projected uint64, snap *ledger.PoolSnapshot) reconciler.Target) error {
	address, err := c.Address()
	if err != nil {
		return err
	}
	program, err := c.ProgramOf()
	if err != nil {
		return err
	}
	staker, err := signer.ResolveAuthorizer(c.Staker, s.cfg.Mode, s.cfg.Payer)
	if err != nil {
		return err
	}

	snap, err := s.fetch(ctx, address, program)
	if err != nil {
		return err
	}
	if err := authorize("staker", snap.Pool.Staker, staker); err != nil {
		return err
	}
	planner := reconciler.NewPlanner(snap.Program, address, snap.Pool)
	sources, err := s.sources(ctx, snap, planner, []reconciler.Target{{Vote: vote}})
	if err != nil {
		return err
	}

	src := sources[0]
	projected, _ := reconciler.Project(reconciler.Committed(src.Validator, snap.Rent), src.Transient, snap.Clock.Epoch)
	src.Target = target(projected, snap)

	changes := reconciler.ReconcileDelegation(reconciler.DelegationInput{
		Sources:         []reconciler.DelegationSource{src},
		ReserveLamports: snap.Reserve.Lamports,
		Epoch:           snap.Clock.Epoch,
		Rent:            snap.Rent,
	})
	reconciler.PrintDelegation(s.cfg.Out, changes)

	ops, err := planner.DelegationOperations(staker.PublicKey(), changes)
	if err != nil {
		return err
	}
	return s.execute(ctx, command, address,
		s.plan(strings.ReplaceAll(command, "-", " "), signer.NewSet(s.cfg.Payer, staker), ops))
}

// SyncPool brings the fees, authorities, staker and manager of a pool to
// the values of c. The current manager signs, the new one too when the
// manager changes.
func (s *Syncer) SyncPool(ctx context.Context, c *config.PoolConfig) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "sync-pool")

	address, err := c.Address()
	if err != nil {
		return err
	}
	program, err := c.ProgramOf()
	if err != nil {
		return err
	}
	oldManager, err := signer.ResolveAuthorizer(c.OldManager, s.cfg.Mode, s.cfg.Payer)
	if err != nil {
		return err
	}

	snap, err := s.fetch(ctx, address, program)
	if err != nil {
		return err
	}
	if err := authorize("manager", snap.Pool.Manager, oldManager); err != nil {
		return err
	}

	target, err := c.Target(snap.Pool)
	if err != nil {
		return err
	}
	newManager := oldManager
	if !target.Manager.Equals(oldManager.PublicKey()) {
		if newManager, err = signer.ResolveRequired(c.Manager, s.cfg.Mode, s.cfg.Payer); err != nil {
			return fmt.Errorf("new manager: %w", err)
		}
	}

	planner := reconciler.NewPlanner(snap.Program, address, snap.Pool)
	changes := reconciler.ReconcileParameters(snap.Pool, target, planner.DefaultDepositAuthority())
	reconciler.PrintParameters(s.cfg.Out, changes)

	ops, err := planner.ParameterOperations(oldManager.PublicKey(), target, changes)
	if err != nil {
		return err
	}
	return s.execute(ctx, "sync-pool", address,
		s.plan("sync pool", signer.NewSet(s.cfg.Payer, oldManager, newManager), ops))
}

// SyncValidatorList adds and removes validators until the pool holds
// exactly the validators of c, then sets the preferred validators. The
// pool is brought up to date for the epoch first, as the program rejects
// membership changes on a stale pool.
func (s *Syncer) SyncValidatorList(ctx context.Context, c *config.PoolConfig) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "sync-validator-list")

	address, err := c.Address()
	if err != nil {
		return err
	}
	program, err := c.ProgramOf()
	if err != nil {
		return err
	}
	declared, err := c.ValidatorSet()
	if err != nil {
		return err
	}
	deposit, withdraw, err := c.Preferred()
	if err != nil {
		return err
	}
	staker, err := signer.ResolveAuthorizer(c.Staker, s.cfg.Mode, s.cfg.Payer)
	if err != nil {
		return err
	}

	snap, err := s.fetch(ctx, address, program)
	if err != nil {
		return err
	}
	if err := authorize("staker", snap.Pool.Staker, staker); err != nil {
		return err
	}

	updated, err := s.update(ctx, "sync-validator-list", snap, reconciler.UpdateIfNeeded)
	if err != nil {
		return err
	}
	if updated && s.cfg.Mode == types.SendModeSendActual {
		if snap, err = s.fetch(ctx, address, program); err != nil {
			return err
		}
	}

	planner := reconciler.NewPlanner(snap.Program, address, snap.Pool)
	_, remove := reconciler.MembershipDiff(snap.ValidatorList, declared)
	keys := make([]solana.PublicKey, len(remove))
	for i, entry := range remove {
		keys[i] = planner.ValidatorStakeAccount(entry)
	}
	accounts, err := ledger.FetchStakeAccounts(ctx, s.client, keys)
	if err != nil {
		return err
	}
	stakeAccounts := make(map[solana.PublicKey]*types.StakeAccount, len(remove))
	for i, acc := range accounts {
		if acc != nil {
			stakeAccounts[remove[i].VoteAccount] = acc
		}
	}

	cs, err := reconciler.ReconcileValidatorSet(reconciler.ValidatorSetInput{
		List:              snap.ValidatorList,
		Pool:              snap.Pool,
		Declared:          declared,
		PreferredDeposit:  deposit,
		PreferredWithdraw: withdraw,
		StakeAccounts:     stakeAccounts,
		Rent:              snap.Rent,
	})
	if err != nil {
		return err
	}
	reconciler.PrintMembership(s.cfg.Out, cs)

	membership, err := planner.MembershipOperations(staker.PublicKey(), cs)
	if err != nil {
		return err
	}
	preferred, err := planner.PreferredOperations(staker.PublicKey(), cs.Preferred)
	if err != nil {
		return err
	}

	signers := signer.NewSet(s.cfg.Payer, staker)
	batches := append(s.plan("sync validator list", signers, membership), s.plan("preferred validators", signers, preferred)...)
	return s.execute(ctx, "sync-validator-list", address, batch.Renumber(batches))
}

// Update runs the update crank of a pool
func (s *Syncer) Update(ctx context.Context, address solana.PublicKey, mode reconciler.UpdateMode) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "update")

	snap, err := s.fetch(ctx, address, nil)
	if err != nil {
		return err
	}
	_, err = s.update(ctx, "update", snap, mode)
	return err
}

// update submits the update crank when the pool needs it and reports
// whether anything was submitted
func (s *Syncer) update(ctx context.Context, command string, snap *ledger.PoolSnapshot, mode reconciler.UpdateMode) (bool, error) {
	plan := reconciler.PlanUpdate(snap.Pool, snap.ValidatorList, snap.Clock.Epoch, mode)
	reconciler.PrintUpdate(s.cfg.Out, plan, snap.Clock.Epoch)
	if plan.IsEmpty() {
		return false, nil
	}

	planner := reconciler.NewPlanner(snap.Program, snap.Address, snap.Pool)
	ops, err := planner.UpdateOperations(plan)
	if err != nil {
		return false, err
	}
	err = s.execute(ctx, command, snap.Address, s.plan("update", signer.NewSet(s.cfg.Payer), ops))
	if err != nil {
		return false, fmt.Errorf("failed to update pool: %w", err)
	}
	return true, nil
}

// SetStaker hands the staker role to the staker of c, or to the payer
// when c names none. The current staker or the manager signs.
func (s *Syncer) SetStaker(ctx context.Context, c *config.PoolConfig) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "set-staker")

	address, err := c.Address()
	if err != nil {
		return err
	}
	authority, err := signer.ResolveAuthorizer(c.OldStaker, s.cfg.Mode, s.cfg.Payer)
	if err != nil {
		return err
	}
	newStaker := s.cfg.Payer.PublicKey()
	if c.Staker != "" {
		if newStaker, err = signer.ParsePubkey(c.Staker); err != nil {
			return fmt.Errorf("%w: staker: %v", reconciler.ErrValidation, err)
		}
	}

	snap, err := s.fetch(ctx, address, nil)
	if err != nil {
		return err
	}
	if snap.Pool.Staker.Equals(newStaker) {
		fmt.Fprintf(s.cfg.Out, "Staker is already %s, no changes necessary\n", newStaker)
		return nil
	}
	if err := authorize("staker", snap.Pool.Staker, authority); err != nil {
		if merr := authorize("manager", snap.Pool.Manager, authority); merr != nil {
			return err
		}
	}

	old := snap.Pool.Staker
	changes := []reconciler.ParameterChange{{Kind: reconciler.StakerChange, Old: &old, New: &newStaker}}
	reconciler.PrintParameters(s.cfg.Out, changes)

	planner := reconciler.NewPlanner(snap.Program, address, snap.Pool)
	ops, err := planner.ParameterOperations(authority.PublicKey(), reconciler.PoolTarget{Staker: newStaker}, changes)
	if err != nil {
		return err
	}
	return s.execute(ctx, "set-staker", address,
		s.plan("set staker", signer.NewSet(s.cfg.Payer, authority), ops))
}

// List writes the current state of a pool to w as a pool config file, or
// as a table of validators when format is "text"
func (s *Syncer) List(ctx context.Context, address solana.PublicKey, w io.Writer, format string) error {
	snap, err := s.fetch(ctx, address, nil)
	if err != nil {
		return err
	}
	if format == "text" {
		reconciler.PrintValidatorList(w, snap.ValidatorList)
		return nil
	}
	f, err := config.ParseFormat(format)
	if err != nil {
		return err
	}
	return config.Write(w, f, config.FromSnapshot(snap))
}
