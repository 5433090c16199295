package config

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/pda"
	"github.com/cuemby/spoolctl/pkg/reconciler"
	"github.com/cuemby/spoolctl/pkg/signer"
	"github.com/cuemby/spoolctl/pkg/types"
)

// PoolFile is the file read by sync-pool and sync-validator-list, and
// written by list
type PoolFile struct {
	Pool PoolConfig `toml:"pool" yaml:"pool"`
}

// PoolConfig declares the parameters and validator set of a pool. Keys
// accept a base58 public key or the path of a keypair file. Fields left
// out keep their current value, except funding authorities, which are
// cleared.
type PoolConfig struct {
	Program       string `toml:"program,omitempty" yaml:"program,omitempty"`
	Mint          string `toml:"mint,omitempty" yaml:"mint,omitempty"`
	TokenProgram  string `toml:"token-program,omitempty" yaml:"token-program,omitempty"`
	Pool          string `toml:"pool,omitempty" yaml:"pool,omitempty"`
	ValidatorList string `toml:"validator-list,omitempty" yaml:"validator-list,omitempty"`

	Manager           string `toml:"manager,omitempty" yaml:"manager,omitempty"`
	ManagerFeeAccount string `toml:"manager-fee-account,omitempty" yaml:"manager-fee-account,omitempty"`
	Staker            string `toml:"staker,omitempty" yaml:"staker,omitempty"`
	StakeDepositAuth  string `toml:"stake-deposit-auth,omitempty" yaml:"stake-deposit-auth,omitempty"`
	StakeWithdrawAuth string `toml:"stake-withdraw-auth,omitempty" yaml:"stake-withdraw-auth,omitempty"` // derived, informational
	SolDepositAuth    string `toml:"sol-deposit-auth,omitempty" yaml:"sol-deposit-auth,omitempty"`
	SolWithdrawAuth   string `toml:"sol-withdraw-auth,omitempty" yaml:"sol-withdraw-auth,omitempty"`

	PreferredDepositValidator  string `toml:"preferred-deposit-validator,omitempty" yaml:"preferred-deposit-validator,omitempty"`
	PreferredWithdrawValidator string `toml:"preferred-withdraw-validator,omitempty" yaml:"preferred-withdraw-validator,omitempty"`

	MaxValidators           *uint32    `toml:"max-validators,omitempty" yaml:"max-validators,omitempty"`
	StakeDepositReferralFee *uint8     `toml:"stake-deposit-referral-fee,omitempty" yaml:"stake-deposit-referral-fee,omitempty"`
	SolDepositReferralFee   *uint8     `toml:"sol-deposit-referral-fee,omitempty" yaml:"sol-deposit-referral-fee,omitempty"`
	EpochFee                *types.Fee `toml:"epoch-fee,omitempty" yaml:"epoch-fee,omitempty"`
	StakeWithdrawalFee      *types.Fee `toml:"stake-withdrawal-fee,omitempty" yaml:"stake-withdrawal-fee,omitempty"`
	SolWithdrawalFee        *types.Fee `toml:"sol-withdrawal-fee,omitempty" yaml:"sol-withdrawal-fee,omitempty"`
	StakeDepositFee         *types.Fee `toml:"stake-deposit-fee,omitempty" yaml:"stake-deposit-fee,omitempty"`
	SolDepositFee           *types.Fee `toml:"sol-deposit-fee,omitempty" yaml:"sol-deposit-fee,omitempty"`

	// read-only state, written by list and ignored otherwise
	TotalLamports            *uint64    `toml:"total-lamports,omitempty" yaml:"total-lamports,omitempty"`
	PoolTokenSupply          *uint64    `toml:"pool-token-supply,omitempty" yaml:"pool-token-supply,omitempty"`
	LastUpdateEpoch          *uint64    `toml:"last-update-epoch,omitempty" yaml:"last-update-epoch,omitempty"`
	NextEpochFee             *types.Fee `toml:"next-epoch-fee,omitempty" yaml:"next-epoch-fee,omitempty"`
	NextStakeWithdrawalFee   *types.Fee `toml:"next-stake-withdrawal-fee,omitempty" yaml:"next-stake-withdrawal-fee,omitempty"`
	NextSolWithdrawalFee     *types.Fee `toml:"next-sol-withdrawal-fee,omitempty" yaml:"next-sol-withdrawal-fee,omitempty"`
	LastEpochPoolTokenSupply *uint64    `toml:"last-epoch-pool-token-supply,omitempty" yaml:"last-epoch-pool-token-supply,omitempty"`
	LastEpochTotalLamports   *uint64    `toml:"last-epoch-total-lamports,omitempty" yaml:"last-epoch-total-lamports,omitempty"`

	// OldManager signs sync-pool when the manager changes; OldStaker signs
	// set-staker
	OldManager string `toml:"old-manager,omitempty" yaml:"old-manager,omitempty"`
	OldStaker  string `toml:"old-staker,omitempty" yaml:"old-staker,omitempty"`

	Reserve    *ReserveConfig    `toml:"reserve,omitempty" yaml:"reserve,omitempty"`
	Validators []ValidatorConfig `toml:"validators,omitempty" yaml:"validators,omitempty"`
}

// ReserveConfig is the pool reserve
type ReserveConfig struct {
	Address  string  `toml:"address" yaml:"address"`
	Lamports *uint64 `toml:"lamports,omitempty" yaml:"lamports,omitempty"`
}

// ValidatorConfig is one validator of the pool. Only Vote is read; the
// rest is written by list.
type ValidatorConfig struct {
	Vote                   string  `toml:"vote" yaml:"vote"`
	ActiveStakeLamports    *uint64 `toml:"active-stake-lamports,omitempty" yaml:"active-stake-lamports,omitempty"`
	TransientStakeLamports *uint64 `toml:"transient-stake-lamports,omitempty" yaml:"transient-stake-lamports,omitempty"`
	LastUpdateEpoch        *uint64 `toml:"last-update-epoch,omitempty" yaml:"last-update-epoch,omitempty"`
	ValidatorSeedSuffix    *uint32 `toml:"validator-seed-suffix,omitempty" yaml:"validator-seed-suffix,omitempty"`
	TransientSeedSuffix    *uint64 `toml:"transient-seed-suffix,omitempty" yaml:"transient-seed-suffix,omitempty"`
	Status                 string  `toml:"status,omitempty" yaml:"status,omitempty"`
	ValidatorStakeAccount  string  `toml:"validator-stake-account,omitempty" yaml:"validator-stake-account,omitempty"`
	TransientStakeAccount  string  `toml:"transient-stake-account,omitempty" yaml:"transient-stake-account,omitempty"`
}

// Address returns the pool address
func (c *PoolConfig) Address() (solana.PublicKey, error) {
	if c.Pool == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: pool is required", reconciler.ErrValidation)
	}
	return signer.ParsePubkey(c.Pool)
}

// ProgramOf returns the declared program, or nil when none is declared
func (c *PoolConfig) ProgramOf() (*types.Program, error) {
	if c.Program == "" {
		return nil, nil
	}
	p, err := types.ParseProgram(c.Program)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reconciler.ErrValidation, err)
	}
	return &p, nil
}

// Target resolves the declared parameters against current, the pool as it
// is on the ledger
func (c *PoolConfig) Target(current *types.StakePool) (reconciler.PoolTarget, error) {
	target := reconciler.PoolTarget{
		Manager:            current.Manager,
		Staker:             current.Staker,
		ManagerFeeAccount:  current.ManagerFeeAccount,
		EpochFee:           orFee(c.EpochFee, current.EpochFee),
		StakeWithdrawalFee: orFee(c.StakeWithdrawalFee, current.StakeWithdrawalFee),
		SolWithdrawalFee:   orFee(c.SolWithdrawalFee, current.SolWithdrawalFee),
		StakeDepositFee:    orFee(c.StakeDepositFee, current.StakeDepositFee),
		SolDepositFee:      orFee(c.SolDepositFee, current.SolDepositFee),
		StakeReferralFee:   orPercent(c.StakeDepositReferralFee, current.StakeReferralFee),
		SolReferralFee:     orPercent(c.SolDepositReferralFee, current.SolReferralFee),
	}

	for _, k := range []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"manager", c.Manager, &target.Manager},
		{"staker", c.Staker, &target.Staker},
		{"manager-fee-account", c.ManagerFeeAccount, &target.ManagerFeeAccount},
	} {
		if k.raw == "" {
			continue
		}
		pk, err := signer.ParsePubkey(k.raw)
		if err != nil {
			return reconciler.PoolTarget{}, fmt.Errorf("%w: %s: %v", reconciler.ErrValidation, k.name, err)
		}
		*k.dst = pk
	}

	for _, k := range []struct {
		name string
		raw  string
		dst  **solana.PublicKey
	}{
		{"stake-deposit-auth", c.StakeDepositAuth, &target.StakeDepositAuthority},
		{"sol-deposit-auth", c.SolDepositAuth, &target.SolDepositAuthority},
		{"sol-withdraw-auth", c.SolWithdrawAuth, &target.SolWithdrawAuthority},
	} {
		pk, err := signer.ParseOptionalPubkey(k.raw)
		if err != nil {
			return reconciler.PoolTarget{}, fmt.Errorf("%w: %s: %v", reconciler.ErrValidation, k.name, err)
		}
		*k.dst = pk
	}
	return target, nil
}

// ValidatorSet returns the declared vote accounts, in order
func (c *PoolConfig) ValidatorSet() ([]solana.PublicKey, error) {
	votes := make([]solana.PublicKey, len(c.Validators))
	for i, v := range c.Validators {
		vote, err := signer.ParsePubkey(v.Vote)
		if err != nil {
			return nil, fmt.Errorf("%w: validator %d: %v", reconciler.ErrValidation, i, err)
		}
		votes[i] = vote
	}
	return votes, nil
}

// Preferred returns the declared preferred deposit and withdraw validators
func (c *PoolConfig) Preferred() (deposit, withdraw *solana.PublicKey, err error) {
	if deposit, err = signer.ParseOptionalPubkey(c.PreferredDepositValidator); err != nil {
		return nil, nil, fmt.Errorf("%w: preferred-deposit-validator: %v", reconciler.ErrValidation, err)
	}
	if withdraw, err = signer.ParseOptionalPubkey(c.PreferredWithdrawValidator); err != nil {
		return nil, nil, fmt.Errorf("%w: preferred-withdraw-validator: %v", reconciler.ErrValidation, err)
	}
	return deposit, withdraw, nil
}

// FromSnapshot renders the state of a pool as a config, with derived
// addresses filled in
func FromSnapshot(snap *ledger.PoolSnapshot) PoolFile {
	p := snap.Pool
	derive := pda.NewDeriver(snap.Program)

	cfg := PoolConfig{
		Program:                    snap.Program.String(),
		Mint:                       p.PoolMint.String(),
		TokenProgram:               p.TokenProgramID.String(),
		Pool:                       snap.Address.String(),
		ValidatorList:              p.ValidatorList.String(),
		Manager:                    p.Manager.String(),
		ManagerFeeAccount:          p.ManagerFeeAccount.String(),
		Staker:                     p.Staker.String(),
		StakeDepositAuth:           p.StakeDepositAuthority.String(),
		StakeWithdrawAuth:          derive.WithdrawAuthority(snap.Address).String(),
		SolDepositAuth:             optionalKey(p.SolDepositAuthority),
		SolWithdrawAuth:            optionalKey(p.SolWithdrawAuthority),
		PreferredDepositValidator:  optionalKey(p.PreferredDepositValidator),
		PreferredWithdrawValidator: optionalKey(p.PreferredWithdrawValidator),
		StakeDepositReferralFee:    &p.StakeReferralFee,
		SolDepositReferralFee:      &p.SolReferralFee,
		EpochFee:                   &p.EpochFee,
		StakeWithdrawalFee:         &p.StakeWithdrawalFee,
		SolWithdrawalFee:           &p.SolWithdrawalFee,
		StakeDepositFee:            &p.StakeDepositFee,
		SolDepositFee:              &p.SolDepositFee,
		TotalLamports:              &p.TotalLamports,
		PoolTokenSupply:            &p.PoolTokenSupply,
		LastUpdateEpoch:            &p.LastUpdateEpoch,
		NextEpochFee:               pendingFee(p.NextEpochFee),
		NextStakeWithdrawalFee:     pendingFee(p.NextStakeWithdrawalFee),
		NextSolWithdrawalFee:       pendingFee(p.NextSolWithdrawalFee),
		LastEpochPoolTokenSupply:   &p.LastEpochPoolTokenSupply,
		LastEpochTotalLamports:     &p.LastEpochTotalLamports,
		Reserve:                    &ReserveConfig{Address: p.ReserveStake.String()},
	}
	if snap.Reserve != nil {
		lamports := snap.Reserve.Lamports
		cfg.Reserve.Lamports = &lamports
	}

	if list := snap.ValidatorList; list != nil {
		maxValidators := list.Header.MaxValidators
		cfg.MaxValidators = &maxValidators
		for _, v := range list.Validators {
			vc := ValidatorConfig{
				Vote:                   v.VoteAccount.String(),
				ActiveStakeLamports:    &v.ActiveStakeLamports,
				TransientStakeLamports: &v.TransientStakeLamports,
				LastUpdateEpoch:        &v.LastUpdateEpoch,
				TransientSeedSuffix:    &v.TransientSeedSuffix,
				Status:                 v.Status.String(),
				ValidatorStakeAccount:  derive.ValidatorStakeAccount(snap.Address, v.VoteAccount, v.ValidatorSeedSuffix).String(),
				TransientStakeAccount:  derive.TransientStakeAccount(snap.Address, v.VoteAccount, v.TransientSeedSuffix).String(),
			}
			if v.ValidatorSeedSuffix != 0 {
				vc.ValidatorSeedSuffix = &v.ValidatorSeedSuffix
			}
			cfg.Validators = append(cfg.Validators, vc)
		}
	}
	return PoolFile{Pool: cfg}
}

func orFee(declared *types.Fee, current types.Fee) types.Fee {
	if declared == nil {
		return current
	}
	return *declared
}

func orPercent(declared *uint8, current uint8) uint8 {
	if declared == nil {
		return current
	}
	return *declared
}

func optionalKey(k *solana.PublicKey) string {
	if k == nil {
		return ""
	}
	return k.String()
}

func pendingFee(f types.FutureEpochFee) *types.Fee {
	fee, ok := f.Pending()
	if !ok {
		return nil
	}
	return &fee
}
