package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// Fee is a rational fee of Numerator/Denominator.
// A zero denominator means a zero fee.
type Fee struct {
	Denominator uint64 `toml:"denominator" yaml:"denominator"`
	Numerator   uint64 `toml:"numerator" yaml:"numerator"`
}

// IsZero reports whether the fee charges nothing
func (f Fee) IsZero() bool {
	return f.Denominator == 0 || f.Numerator == 0
}

// Equal compares the rational values of two fees, so 1/10 equals 10/100.
func (f Fee) Equal(o Fee) bool {
	if f.IsZero() || o.IsZero() {
		return f.IsZero() && o.IsZero()
	}
	lhs := new(uint256.Int).Mul(uint256.NewInt(f.Numerator), uint256.NewInt(o.Denominator))
	rhs := new(uint256.Int).Mul(uint256.NewInt(o.Numerator), uint256.NewInt(f.Denominator))
	return lhs.Eq(rhs)
}

func (f Fee) String() string {
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// FutureEpochFeeKind tags how far ahead a pending fee change lands
type FutureEpochFeeKind uint8

const (
	FutureEpochFeeNone FutureEpochFeeKind = iota
	FutureEpochFeeOne
	FutureEpochFeeTwo
)

// FutureEpochFee is a fee change scheduled by the program for a later epoch
type FutureEpochFee struct {
	Kind FutureEpochFeeKind
	Fee  Fee
}

// Pending returns the scheduled fee, if any
func (f FutureEpochFee) Pending() (Fee, bool) {
	if f.Kind == FutureEpochFeeNone {
		return Fee{}, false
	}
	return f.Fee, true
}

// FeeKind enumerates the SetFee variants in wire order
type FeeKind uint8

const (
	FeeKindSolReferral FeeKind = iota
	FeeKindStakeReferral
	FeeKindEpoch
	FeeKindStakeWithdrawal
	FeeKindSolDeposit
	FeeKindStakeDeposit
	FeeKindSolWithdrawal
)

func (k FeeKind) String() string {
	switch k {
	case FeeKindEpoch:
		return "epoch fee"
	case FeeKindSolDeposit:
		return "SOL deposit fee"
	case FeeKindSolReferral:
		return "SOL referral fee"
	case FeeKindSolWithdrawal:
		return "SOL withdrawal fee"
	case FeeKindStakeDeposit:
		return "stake deposit fee"
	case FeeKindStakeReferral:
		return "stake referral fee"
	case FeeKindStakeWithdrawal:
		return "stake withdrawal fee"
	default:
		return fmt.Sprintf("fee(%d)", uint8(k))
	}
}

// IsReferral reports whether the fee is a whole percentage rather than a ratio
func (k FeeKind) IsReferral() bool {
	return k == FeeKindSolReferral || k == FeeKindStakeReferral
}

// FeeType is a fee value tagged with its kind. Referral kinds use Percent,
// all others use Fee.
type FeeType struct {
	Kind    FeeKind
	Fee     Fee
	Percent uint8
}

// RatioFee builds a FeeType for a ratio fee kind
func RatioFee(kind FeeKind, fee Fee) FeeType {
	return FeeType{Kind: kind, Fee: fee}
}

// ReferralFee builds a FeeType for a referral fee kind
func ReferralFee(kind FeeKind, percent uint8) FeeType {
	return FeeType{Kind: kind, Percent: percent}
}

// Equal compares kind and value
func (f FeeType) Equal(o FeeType) bool {
	if f.Kind != o.Kind {
		return false
	}
	if f.Kind.IsReferral() {
		return f.Percent == o.Percent
	}
	return f.Fee.Equal(o.Fee)
}

// ValueString renders only the value, "6/100" or "50%"
func (f FeeType) ValueString() string {
	if f.Kind.IsReferral() {
		return fmt.Sprintf("%d%%", f.Percent)
	}
	return f.Fee.String()
}

// FundingType selects which funding authority SetFundingAuthority changes
type FundingType uint8

const (
	FundingTypeStakeDeposit FundingType = iota
	FundingTypeSolDeposit
	FundingTypeSolWithdraw
)

func (t FundingType) String() string {
	switch t {
	case FundingTypeStakeDeposit:
		return "stake deposit authority"
	case FundingTypeSolDeposit:
		return "SOL deposit authority"
	case FundingTypeSolWithdraw:
		return "SOL withdraw authority"
	default:
		return fmt.Sprintf("funding authority(%d)", uint8(t))
	}
}

// PreferredValidatorType selects the deposit or withdraw preferred validator
type PreferredValidatorType uint8

const (
	PreferredValidatorDeposit PreferredValidatorType = iota
	PreferredValidatorWithdraw
)

func (t PreferredValidatorType) String() string {
	if t == PreferredValidatorWithdraw {
		return "preferred withdraw validator"
	}
	return "preferred deposit validator"
}

// Lockup mirrors the stake program lockup
type Lockup struct {
	UnixTimestamp int64
	Epoch         uint64
	Custodian     solana.PublicKey
}

// StakePool is the decoded pool account
type StakePool struct {
	AccountType                uint8
	Manager                    solana.PublicKey
	Staker                     solana.PublicKey
	StakeDepositAuthority      solana.PublicKey
	StakeWithdrawBumpSeed      uint8
	ValidatorList              solana.PublicKey
	ReserveStake               solana.PublicKey
	PoolMint                   solana.PublicKey
	ManagerFeeAccount          solana.PublicKey
	TokenProgramID             solana.PublicKey
	TotalLamports              uint64
	PoolTokenSupply            uint64
	LastUpdateEpoch            uint64
	Lockup                     Lockup
	EpochFee                   Fee
	NextEpochFee               FutureEpochFee
	PreferredDepositValidator  *solana.PublicKey
	PreferredWithdrawValidator *solana.PublicKey
	StakeDepositFee            Fee
	StakeWithdrawalFee         Fee
	NextStakeWithdrawalFee     FutureEpochFee
	StakeReferralFee           uint8
	SolDepositAuthority        *solana.PublicKey
	SolDepositFee              Fee
	SolReferralFee             uint8
	SolWithdrawAuthority       *solana.PublicKey
	SolWithdrawalFee           Fee
	NextSolWithdrawalFee       FutureEpochFee
	LastEpochPoolTokenSupply   uint64
	LastEpochTotalLamports     uint64
}

// IsUpdated reports whether the pool has been updated for the given epoch
func (p *StakePool) IsUpdated(epoch uint64) bool {
	return p.LastUpdateEpoch >= epoch
}

// PreferredValidator returns the preferred validator of the given type
func (p *StakePool) PreferredValidator(t PreferredValidatorType) *solana.PublicKey {
	if t == PreferredValidatorWithdraw {
		return p.PreferredWithdrawValidator
	}
	return p.PreferredDepositValidator
}

// KeyEqual compares two optional public keys
func KeyEqual(a, b *solana.PublicKey) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(*b)
}

// KeyString renders an optional public key, "None" when absent
func KeyString(k *solana.PublicKey) string {
	if k == nil {
		return "None"
	}
	return k.String()
}
