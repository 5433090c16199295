package types

import (
	"math"

	"github.com/gagliardetto/solana-go"
)

const (
	// StakeStateSize is the data length of a stake account
	StakeStateSize = 200

	// MinimumActiveStake is the least delegated stake the pool program
	// keeps in every validator stake account.
	MinimumActiveStake uint64 = 1_000_000
)

// StakeStateKind is the bincode tag of a stake account
type StakeStateKind uint32

const (
	StakeStateUninitialized StakeStateKind = iota
	StakeStateInitialized
	StakeStateStake
	StakeStateRewardsPool
)

// Meta is the authority and rent metadata of a stake account
type Meta struct {
	RentExemptReserve uint64
	Staker            solana.PublicKey
	Withdrawer        solana.PublicKey
	Lockup            Lockup
}

// Delegation describes where and when stake is delegated
type Delegation struct {
	VoterPubkey        solana.PublicKey
	Stake              uint64
	ActivationEpoch    uint64
	DeactivationEpoch  uint64
	WarmupCooldownRate float64
}

// StakeState is a decoded stake account
type StakeState struct {
	Kind            StakeStateKind
	Meta            Meta
	Delegation      Delegation
	CreditsObserved uint64
	Flags           uint8
}

// IsDeactivating reports whether the delegation has been deactivated
func (s StakeState) IsDeactivating() bool {
	return s.Kind == StakeStateStake && s.Delegation.DeactivationEpoch != math.MaxUint64
}

// StakeAccount is a stake account together with its balance
type StakeAccount struct {
	Address  solana.PublicKey
	Lamports uint64
	State    StakeState
}

// Clock is the clock sysvar
type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

// Rent is the rent sysvar
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// accountStorageOverhead is added to the data length of every account
// when computing rent.
const accountStorageOverhead = 128

// DefaultRent matches the cluster defaults
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionThreshold:  2.0,
	BurnPercent:         50,
}

// MinimumBalance is the rent-exempt minimum for an account of dataLen bytes
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	bytes := accountStorageOverhead + dataLen
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// StakeRentExemption is the rent-exempt reserve of a stake account
func (r Rent) StakeRentExemption() uint64 {
	return r.MinimumBalance(StakeStateSize)
}

// MinimumValidatorStake is the balance a validator stake account can never
// go below while its validator is a pool member.
func MinimumValidatorStake(rent Rent) uint64 {
	return rent.StakeRentExemption() + MinimumActiveStake
}
