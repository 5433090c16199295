package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// StakeStatus is the lifecycle status of a validator list entry
type StakeStatus uint8

const (
	StakeStatusActive StakeStatus = iota
	StakeStatusDeactivatingTransient
	StakeStatusReadyForRemoval
	StakeStatusDeactivatingValidator
	StakeStatusDeactivatingAll
)

func (s StakeStatus) String() string {
	switch s {
	case StakeStatusActive:
		return "active"
	case StakeStatusDeactivatingTransient:
		return "deactivating-transient"
	case StakeStatusReadyForRemoval:
		return "ready-for-removal"
	case StakeStatusDeactivatingValidator:
		return "deactivating-validator"
	case StakeStatusDeactivatingAll:
		return "deactivating-all"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseStakeStatus parses the String form of a status
func ParseStakeStatus(s string) (StakeStatus, error) {
	for st := StakeStatusActive; st <= StakeStatusDeactivatingAll; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown stake status: %s", s)
}

// ValidatorStakeInfo is a single entry of a pool's validator list
type ValidatorStakeInfo struct {
	ActiveStakeLamports    uint64
	TransientStakeLamports uint64
	LastUpdateEpoch        uint64
	TransientSeedSuffix    uint64
	Unused                 uint32
	ValidatorSeedSuffix    uint32
	Status                 StakeStatus
	VoteAccount            solana.PublicKey
}

// ValidatorListHeader precedes the entries of a validator list account
type ValidatorListHeader struct {
	AccountType   uint8
	MaxValidators uint32
}

// ValidatorList is the decoded validator list account of a pool
type ValidatorList struct {
	Header     ValidatorListHeader
	Validators []ValidatorStakeInfo
}

// Find returns the entry for the given vote account
func (l *ValidatorList) Find(vote solana.PublicKey) (ValidatorStakeInfo, bool) {
	for _, v := range l.Validators {
		if v.VoteAccount.Equals(vote) {
			return v, true
		}
	}
	return ValidatorStakeInfo{}, false
}

// Contains reports whether the vote account is a member of the list
func (l *ValidatorList) Contains(vote solana.PublicKey) bool {
	_, ok := l.Find(vote)
	return ok
}

// SendMode selects what happens to built transactions
type SendMode string

const (
	SendModeSendActual SendMode = "send-actual"
	SendModeSimOnly    SendMode = "sim-only"
	SendModeDumpMsg    SendMode = "dump-msg"
)

// ParseSendMode parses a --send-mode value
func ParseSendMode(s string) (SendMode, error) {
	switch m := SendMode(s); m {
	case SendModeSendActual, SendModeSimOnly, SendModeDumpMsg:
		return m, nil
	default:
		return "", fmt.Errorf("invalid send mode %q (expected send-actual, sim-only or dump-msg)", s)
	}
}

// AllowsPlaceholders reports whether transactions may carry unsigned
// placeholder signers in this mode.
func (m SendMode) AllowsPlaceholders() bool {
	return m == SendModeSimOnly || m == SendModeDumpMsg
}
