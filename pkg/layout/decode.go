package layout

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/types"
)

// ValidatorStakeInfoSize is the encoded length of one validator list entry
const ValidatorStakeInfoSize = 73

// reader wraps a borsh decoder and keeps the first error, so a layout can
// be read field by field and checked once at the end.
type reader struct {
	dec *bin.Decoder
	err error
}

func newReader(data []byte) *reader {
	return &reader{dec: bin.NewBorshDecoder(data)}
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.err = err
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	r.err = err
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	r.err = err
	return v
}

func (r *reader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(bin.LE)
	r.err = err
	return v
}

func (r *reader) f64() float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadFloat64(bin.LE)
	r.err = err
	return v
}

func (r *reader) pubkey() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	b, err := r.dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		r.err = err
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

func (r *reader) optPubkey() *solana.PublicKey {
	switch tag := r.u8(); tag {
	case 0:
		return nil
	case 1:
		pk := r.pubkey()
		return &pk
	default:
		if r.err == nil {
			r.err = fmt.Errorf("invalid option tag %d", tag)
		}
		return nil
	}
}

func (r *reader) fee() types.Fee {
	return types.Fee{Denominator: r.u64(), Numerator: r.u64()}
}

func (r *reader) futureFee() types.FutureEpochFee {
	kind := types.FutureEpochFeeKind(r.u8())
	switch kind {
	case types.FutureEpochFeeNone:
		return types.FutureEpochFee{}
	case types.FutureEpochFeeOne, types.FutureEpochFeeTwo:
		return types.FutureEpochFee{Kind: kind, Fee: r.fee()}
	default:
		if r.err == nil {
			r.err = fmt.Errorf("invalid future epoch fee tag %d", kind)
		}
		return types.FutureEpochFee{}
	}
}

func (r *reader) lockup() types.Lockup {
	return types.Lockup{UnixTimestamp: r.i64(), Epoch: r.u64(), Custodian: r.pubkey()}
}

// DecodeStakePool decodes a pool account
func DecodeStakePool(data []byte) (*types.StakePool, error) {
	r := newReader(data)
	p := &types.StakePool{}
	p.AccountType = r.u8()
	p.Manager = r.pubkey()
	p.Staker = r.pubkey()
	p.StakeDepositAuthority = r.pubkey()
	p.StakeWithdrawBumpSeed = r.u8()
	p.ValidatorList = r.pubkey()
	p.ReserveStake = r.pubkey()
	p.PoolMint = r.pubkey()
	p.ManagerFeeAccount = r.pubkey()
	p.TokenProgramID = r.pubkey()
	p.TotalLamports = r.u64()
	p.PoolTokenSupply = r.u64()
	p.LastUpdateEpoch = r.u64()
	p.Lockup = r.lockup()
	p.EpochFee = r.fee()
	p.NextEpochFee = r.futureFee()
	p.PreferredDepositValidator = r.optPubkey()
	p.PreferredWithdrawValidator = r.optPubkey()
	p.StakeDepositFee = r.fee()
	p.StakeWithdrawalFee = r.fee()
	p.NextStakeWithdrawalFee = r.futureFee()
	p.StakeReferralFee = r.u8()
	p.SolDepositAuthority = r.optPubkey()
	p.SolDepositFee = r.fee()
	p.SolReferralFee = r.u8()
	p.SolWithdrawAuthority = r.optPubkey()
	p.SolWithdrawalFee = r.fee()
	p.NextSolWithdrawalFee = r.futureFee()
	p.LastEpochPoolTokenSupply = r.u64()
	p.LastEpochTotalLamports = r.u64()
	if r.err != nil {
		return nil, fmt.Errorf("failed to decode stake pool: %w", r.err)
	}
	if p.AccountType != AccountTypeStakePool {
		return nil, fmt.Errorf("failed to decode stake pool: unexpected account type %d", p.AccountType)
	}
	return p, nil
}

// DecodeValidatorList decodes a validator list account. Trailing capacity
// beyond the encoded length is ignored.
func DecodeValidatorList(data []byte) (*types.ValidatorList, error) {
	r := newReader(data)
	l := &types.ValidatorList{}
	l.Header.AccountType = r.u8()
	l.Header.MaxValidators = r.u32()
	n := r.u32()
	if r.err != nil {
		return nil, fmt.Errorf("failed to decode validator list header: %w", r.err)
	}
	if l.Header.AccountType != AccountTypeValidatorList {
		return nil, fmt.Errorf("failed to decode validator list: unexpected account type %d", l.Header.AccountType)
	}
	if int(n)*ValidatorStakeInfoSize > r.dec.Remaining() {
		return nil, fmt.Errorf("failed to decode validator list: %d entries exceed account data", n)
	}
	l.Validators = make([]types.ValidatorStakeInfo, 0, n)
	for i := uint32(0); i < n; i++ {
		l.Validators = append(l.Validators, types.ValidatorStakeInfo{
			ActiveStakeLamports:    r.u64(),
			TransientStakeLamports: r.u64(),
			LastUpdateEpoch:        r.u64(),
			TransientSeedSuffix:    r.u64(),
			Unused:                 r.u32(),
			ValidatorSeedSuffix:    r.u32(),
			Status:                 types.StakeStatus(r.u8()),
			VoteAccount:            r.pubkey(),
		})
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to decode validator list entries: %w", r.err)
	}
	return l, nil
}

// DecodeStakeState decodes a stake account
func DecodeStakeState(data []byte) (types.StakeState, error) {
	r := newReader(data)
	s := types.StakeState{Kind: types.StakeStateKind(r.u32())}
	switch s.Kind {
	case types.StakeStateUninitialized, types.StakeStateRewardsPool:
	case types.StakeStateInitialized:
		s.Meta = r.meta()
	case types.StakeStateStake:
		s.Meta = r.meta()
		s.Delegation = types.Delegation{
			VoterPubkey:        r.pubkey(),
			Stake:              r.u64(),
			ActivationEpoch:    r.u64(),
			DeactivationEpoch:  r.u64(),
			WarmupCooldownRate: r.f64(),
		}
		s.CreditsObserved = r.u64()
		s.Flags = r.u8()
	default:
		return s, fmt.Errorf("failed to decode stake account: unknown state %d", s.Kind)
	}
	if r.err != nil {
		return s, fmt.Errorf("failed to decode stake account: %w", r.err)
	}
	return s, nil
}

func (r *reader) meta() types.Meta {
	return types.Meta{
		RentExemptReserve: r.u64(),
		Staker:            r.pubkey(),
		Withdrawer:        r.pubkey(),
		Lockup:            r.lockup(),
	}
}

// DecodeClock decodes the clock sysvar
func DecodeClock(data []byte) (types.Clock, error) {
	r := newReader(data)
	c := types.Clock{
		Slot:                r.u64(),
		EpochStartTimestamp: r.i64(),
		Epoch:               r.u64(),
		LeaderScheduleEpoch: r.u64(),
		UnixTimestamp:       r.i64(),
	}
	if r.err != nil {
		return c, fmt.Errorf("failed to decode clock: %w", r.err)
	}
	return c, nil
}

// DecodeRent decodes the rent sysvar
func DecodeRent(data []byte) (types.Rent, error) {
	r := newReader(data)
	rent := types.Rent{
		LamportsPerByteYear: r.u64(),
		ExemptionThreshold:  r.f64(),
		BurnPercent:         r.u8(),
	}
	if r.err != nil {
		return rent, fmt.Errorf("failed to decode rent: %w", r.err)
	}
	return rent, nil
}
