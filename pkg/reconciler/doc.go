/*
Package reconciler compares the declared configuration of a stake pool with
its state on the ledger and decides which operations bring the two together.

Every command fetches a fresh snapshot, runs one reconciliation pass over it
and exits. Nothing is remembered between runs: a pass that was interrupted
halfway is simply recomputed from whatever landed.

# Architecture

Reconciliation is split in two stages. The first stage is pure: it takes
decoded ledger state plus the declared targets and returns typed change
lists. The second stage, the Planner, turns those changes into instructions
grouped into batch.Operation values for the batcher:

	┌──────────────┐   ┌─────────────────────┐   ┌──────────────┐
	│   Snapshot   │──▶│   Reconcile*        │──▶│   Planner    │──▶ batch.Plan
	│ (ledger pkg) │   │ (changes, no I/O)   │   │ (operations) │
	└──────────────┘   └─────────────────────┘   └──────────────┘

Keeping the first stage free of I/O means the summaries printed by the
Print* functions always match what gets submitted.

# Stake Lifecycle

A validator's stake lives in two accounts. The validator stake account holds
committed stake plus a floor (rent-exempt reserve and the minimum delegation)
that cannot leave while the validator is a member. The transient stake
account holds stake that is moving this epoch:

	Transient activation epoch == current epoch   →  Activating
	Any other transient account                   →  Deactivating
	No transient account                          →  None

Project combines both into the stake the validator will hold next epoch.
Stake may only keep moving in the direction it already moves: a decrease is
refused while an increase is activating, and the other way round. These
refusals are reported as TransientConflict.

# Delegation

ReconcileDelegation walks the declared targets in order. Increases draw from
a single reserve budget, and the reserve never drops below ReserveMargin,
which leaves room for its own rent and for a new transient account:

	available = budget - margin   (saturating)
	actual    = min(available, desired)
	budget   -= actual

Earlier targets are therefore served first. When the budget runs out the
change degrades to PartialIncrease or InsufficientReserve instead of
failing. A single target may ask for the remainder of the reserve; it is
always moved last by OrderTargets.

# Parameters

ReconcileParameters orders its changes so that each is still authorized
when it lands:

 1. Funding authorities
 2. Epoch and withdrawal fees (skipped when the same value is already
    pending for a future epoch)
 3. Deposit and referral fees
 4. Manager fee account
 5. Staker
 6. Manager

The manager goes last since every earlier operation is signed by the
current manager. Fees compare as rationals, so 1/100 equals 10/1000.

# Validator Set

ReconcileValidatorSet diffs the declared validators against the list.
Removing a validator that still holds stake above the floor first decreases
that stake; the Planner binds the decrease to the removal so the batcher
never separates them. Entries already being removed or with stake in flight
are reported and left for a later epoch.

# Update Crank

A pool must be brought up to date once per epoch before stake can move.
PlanUpdate selects the validator list chunks of MaxValidatorsPerUpdate
entries that are stale, then the pool balance update and the cleanup of
removed entries. UpdateForcePool and UpdateForceAll run it even when the
pool looks current.

# Metrics

The Planner counts every change it sees in metrics.ChangesTotal, labelled by
reconciler and change kind, including changes that carry no operation.
*/
package reconciler
