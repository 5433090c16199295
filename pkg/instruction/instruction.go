package instruction

import (
	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/layout"
	"github.com/cuemby/spoolctl/pkg/pda"
	"github.com/cuemby/spoolctl/pkg/types"
)

// Instruction discriminants of the stake pool program
const (
	ixAddValidatorToPool               uint8 = 1
	ixRemoveValidatorFromPool          uint8 = 2
	ixSetPreferredValidator            uint8 = 5
	ixUpdateValidatorListBalance       uint8 = 6
	ixUpdateStakePoolBalance           uint8 = 7
	ixCleanupRemovedValidatorEntries   uint8 = 8
	ixSetManager                       uint8 = 11
	ixSetFee                           uint8 = 12
	ixSetStaker                        uint8 = 13
	ixSetFundingAuthority              uint8 = 15
	ixIncreaseAdditionalValidatorStake uint8 = 19
	ixDecreaseAdditionalValidatorStake uint8 = 20
)

// EphemeralSeed is the ephemeral stake account seed used for additional
// stake changes. The account is created and closed within the instruction.
const EphemeralSeed uint64 = 0

// StakeConfigID is the deprecated stake config account still required by
// the delegating instructions.
var StakeConfigID = solana.MustPublicKeyFromBase58("StakeConfig11111111111111111111111111111111")

// PoolAccounts are the pool-level accounts shared by most instructions
type PoolAccounts struct {
	Pool              solana.PublicKey
	ValidatorList     solana.PublicKey
	Reserve           solana.PublicKey
	ManagerFeeAccount solana.PublicKey
	PoolMint          solana.PublicKey
	TokenProgram      solana.PublicKey
}

// PoolAccountsOf collects the shared accounts of a decoded pool
func PoolAccountsOf(address solana.PublicKey, pool *types.StakePool) PoolAccounts {
	return PoolAccounts{
		Pool:              address,
		ValidatorList:     pool.ValidatorList,
		Reserve:           pool.ReserveStake,
		ManagerFeeAccount: pool.ManagerFeeAccount,
		PoolMint:          pool.PoolMint,
		TokenProgram:      pool.TokenProgramID,
	}
}

// Builder builds stake pool instructions for one pool of one deployment
type Builder struct {
	accounts PoolAccounts
	derive   *pda.Deriver
}

// NewBuilder creates a new instruction builder
func NewBuilder(derive *pda.Deriver, accounts PoolAccounts) *Builder {
	return &Builder{accounts: accounts, derive: derive}
}

func (b *Builder) withdrawAuthority() solana.PublicKey {
	return b.derive.WithdrawAuthority(b.accounts.Pool)
}

func (b *Builder) build(accounts solana.AccountMetaSlice, data *layout.Writer) (solana.Instruction, error) {
	bytes, err := data.Bytes()
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(b.derive.Program(), accounts, bytes), nil
}

// AddValidatorToPool adds a validator, funding its stake account from the reserve
func (b *Builder) AddValidatorToPool(staker, vote solana.PublicKey, seed uint32) (solana.Instruction, error) {
	a := b.accounts
	return b.build(solana.AccountMetaSlice{
		solana.Meta(a.Pool).WRITE(),
		solana.Meta(staker).SIGNER(),
		solana.Meta(a.Reserve).WRITE(),
		solana.Meta(b.withdrawAuthority()),
		solana.Meta(a.ValidatorList).WRITE(),
		solana.Meta(b.derive.ValidatorStakeAccount(a.Pool, vote, seed)).WRITE(),
		solana.Meta(vote),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(StakeConfigID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, layout.NewWriter().U8(ixAddValidatorToPool).U32(seed))
}

// RemoveValidatorFromPool removes a validator and deactivates its remaining stake
func (b *Builder) RemoveValidatorFromPool(staker solana.PublicKey, entry types.ValidatorStakeInfo) (solana.Instruction, error) {
	a := b.accounts
	return b.build(solana.AccountMetaSlice{
		solana.Meta(a.Pool).WRITE(),
		solana.Meta(staker).SIGNER(),
		solana.Meta(b.withdrawAuthority()),
		solana.Meta(a.ValidatorList).WRITE(),
		solana.Meta(b.derive.ValidatorStakeAccount(a.Pool, entry.VoteAccount, entry.ValidatorSeedSuffix)).WRITE(),
		solana.Meta(b.derive.TransientStakeAccount(a.Pool, entry.VoteAccount, entry.TransientSeedSuffix)).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.StakeProgramID),
	}, layout.NewWriter().U8(ixRemoveValidatorFromPool))
}

// IncreaseAdditionalValidatorStake moves lamports from the reserve into the
// validator's transient stake account.
func (b *Builder) IncreaseAdditionalValidatorStake(staker solana.PublicKey, entry types.ValidatorStakeInfo, lamports uint64) (solana.Instruction, error) {
	a := b.accounts
	return b.build(solana.AccountMetaSlice{
		solana.Meta(a.Pool),
		solana.Meta(staker).SIGNER(),
		solana.Meta(b.withdrawAuthority()),
		solana.Meta(a.ValidatorList).WRITE(),
		solana.Meta(a.Reserve).WRITE(),
		solana.Meta(b.derive.EphemeralStakeAccount(a.Pool, EphemeralSeed)).WRITE(),
		solana.Meta(b.derive.TransientStakeAccount(a.Pool, entry.VoteAccount, entry.TransientSeedSuffix)).WRITE(),
		solana.Meta(b.derive.ValidatorStakeAccount(a.Pool, entry.VoteAccount, entry.ValidatorSeedSuffix)),
		solana.Meta(entry.VoteAccount),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(StakeConfigID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, layout.NewWriter().
		U8(ixIncreaseAdditionalValidatorStake).
		U64(lamports).
		U64(entry.TransientSeedSuffix).
		U64(EphemeralSeed))
}

// DecreaseAdditionalValidatorStake splits lamports off the validator stake
// account into its transient stake account for deactivation.
func (b *Builder) DecreaseAdditionalValidatorStake(staker solana.PublicKey, entry types.ValidatorStakeInfo, lamports uint64) (solana.Instruction, error) {
	a := b.accounts
	return b.build(solana.AccountMetaSlice{
		solana.Meta(a.Pool),
		solana.Meta(staker).SIGNER(),
		solana.Meta(b.withdrawAuthority()),
		solana.Meta(a.ValidatorList).WRITE(),
		solana.Meta(a.Reserve).WRITE(),
		solana.Meta(b.derive.ValidatorStakeAccount(a.Pool, entry.VoteAccount, entry.ValidatorSeedSuffix)).WRITE(),
		solana.Meta(b.derive.EphemeralStakeAccount(a.Pool, EphemeralSeed)).WRITE(),
		solana.Meta(b.derive.TransientStakeAccount(a.Pool, entry.VoteAccount, entry.TransientSeedSuffix)).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, layout.NewWriter().
		U8(ixDecreaseAdditionalValidatorStake).
		U64(lamports).
		U64(entry.TransientSeedSuffix).
		U64(EphemeralSeed))
}

// SetPreferredValidator points deposits or withdrawals at a validator, or
// clears the pointer when vote is nil.
func (b *Builder) SetPreferredValidator(staker solana.PublicKey, kind types.PreferredValidatorType, vote *solana.PublicKey) (solana.Instruction, error) {
	a := b.accounts
	return b.build(solana.AccountMetaSlice{
		solana.Meta(a.Pool).WRITE(),
		solana.Meta(staker).SIGNER(),
		solana.Meta(a.ValidatorList),
	}, layout.NewWriter().U8(ixSetPreferredValidator).U8(uint8(kind)).OptPubkey(vote))
}

// SetFee changes one fee of the pool
func (b *Builder) SetFee(manager solana.PublicKey, fee types.FeeType) (solana.Instruction, error) {
	data := layout.NewWriter().U8(ixSetFee).U8(uint8(fee.Kind))
	if fee.Kind.IsReferral() {
		data.U8(fee.Percent)
	} else {
		data.Fee(fee.Fee)
	}
	return b.build(solana.AccountMetaSlice{
		solana.Meta(b.accounts.Pool).WRITE(),
		solana.Meta(manager).SIGNER(),
	}, data)
}

// SetFundingAuthority sets or clears one funding authority
func (b *Builder) SetFundingAuthority(manager solana.PublicKey, kind types.FundingType, authority *solana.PublicKey) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{
		solana.Meta(b.accounts.Pool).WRITE(),
		solana.Meta(manager).SIGNER(),
	}
	if authority != nil {
		accounts = append(accounts, solana.Meta(*authority))
	}
	return b.build(accounts, layout.NewWriter().U8(ixSetFundingAuthority).U8(uint8(kind)))
}

// SetManager changes the manager and the manager fee account. Both the
// current and the new manager sign.
func (b *Builder) SetManager(manager, newManager, newFeeAccount solana.PublicKey) (solana.Instruction, error) {
	return b.build(solana.AccountMetaSlice{
		solana.Meta(b.accounts.Pool).WRITE(),
		solana.Meta(manager).SIGNER(),
		solana.Meta(newManager).SIGNER(),
		solana.Meta(newFeeAccount),
	}, layout.NewWriter().U8(ixSetManager))
}

// SetStaker changes the staker. The signer is the current staker or the manager.
func (b *Builder) SetStaker(signer, newStaker solana.PublicKey) (solana.Instruction, error) {
	return b.build(solana.AccountMetaSlice{
		solana.Meta(b.accounts.Pool).WRITE(),
		solana.Meta(signer).SIGNER(),
		solana.Meta(newStaker),
	}, layout.NewWriter().U8(ixSetStaker))
}

// UpdateValidatorListBalance updates the balances of entries, which must be
// the contiguous slice of the validator list starting at startIndex.
func (b *Builder) UpdateValidatorListBalance(startIndex uint32, entries []types.ValidatorStakeInfo) (solana.Instruction, error) {
	a := b.accounts
	accounts := solana.AccountMetaSlice{
		solana.Meta(a.Pool),
		solana.Meta(b.withdrawAuthority()),
		solana.Meta(a.ValidatorList).WRITE(),
		solana.Meta(a.Reserve).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(solana.StakeProgramID),
	}
	for _, e := range entries {
		accounts = append(accounts,
			solana.Meta(b.derive.ValidatorStakeAccount(a.Pool, e.VoteAccount, e.ValidatorSeedSuffix)).WRITE(),
			solana.Meta(b.derive.TransientStakeAccount(a.Pool, e.VoteAccount, e.TransientSeedSuffix)).WRITE(),
		)
	}
	return b.build(accounts, layout.NewWriter().U8(ixUpdateValidatorListBalance).U32(startIndex).Bool(false))
}

// UpdateStakePoolBalance recomputes the pool's total lamports and pays out epoch fees
func (b *Builder) UpdateStakePoolBalance() (solana.Instruction, error) {
	a := b.accounts
	return b.build(solana.AccountMetaSlice{
		solana.Meta(a.Pool).WRITE(),
		solana.Meta(b.withdrawAuthority()),
		solana.Meta(a.ValidatorList).WRITE(),
		solana.Meta(a.Reserve),
		solana.Meta(a.ManagerFeeAccount).WRITE(),
		solana.Meta(a.PoolMint).WRITE(),
		solana.Meta(a.TokenProgram),
	}, layout.NewWriter().U8(ixUpdateStakePoolBalance))
}

// CleanupRemovedValidatorEntries drops ReadyForRemoval entries from the list
func (b *Builder) CleanupRemovedValidatorEntries() (solana.Instruction, error) {
	return b.build(solana.AccountMetaSlice{
		solana.Meta(b.accounts.Pool),
		solana.Meta(b.accounts.ValidatorList).WRITE(),
	}, layout.NewWriter().U8(ixCleanupRemovedValidatorEntries))
}
