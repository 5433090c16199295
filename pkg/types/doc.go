/*
Package types defines the on-ledger data model that spoolctl reconciles against.

Every other package works in terms of these types: the layout package decodes
raw account bytes into them, the reconciler reads them as an immutable snapshot,
and the config package renders them back into pool config files.

# Core Types

Pool state:
  - StakePool: the pool account (authorities, fee schedule, references)
  - Fee, FutureEpochFee: rational fees and fee changes pending for a later epoch
  - FeeType, FeeKind: a fee value tagged with the SetFee variant it maps to
  - FundingType: stake-deposit, SOL-deposit and SOL-withdraw authorities

Validator list:
  - ValidatorList, ValidatorListHeader
  - ValidatorStakeInfo: per-validator active and transient stake, seeds, status
  - StakeStatus: Active through DeactivatingAll

Stake program:
  - StakeAccount, StakeState, Meta, Delegation
  - MinimumValidatorStake: the floor a validator stake account never goes below

Sysvars:
  - Clock, Rent

Deployment and execution:
  - Program: a stake pool program deployment (spl, sanctum-spl,
    sanctum-spl-multi, or a custom id), resolved once and passed explicitly
  - SendMode: send-actual, sim-only, dump-msg

# Fee Equality

Fees are compared on their rational value. 1/10 and 10/100 are equal, and any
fee with a zero numerator or denominator is a zero fee:

	a := types.Fee{Numerator: 1, Denominator: 10}
	b := types.Fee{Numerator: 10, Denominator: 100}
	a.Equal(b) // true

The cross products are computed in 256 bits so that no pair of u64 fields can
overflow.

# Validator Floor

A validator stake account always keeps the stake account rent-exempt reserve
plus MinimumActiveStake lamports. Stake above that floor is what the
reconcilers treat as committed, movable stake:

	floor := types.MinimumValidatorStake(rent)
	committed := account.Lamports - floor // saturating
*/
package types
