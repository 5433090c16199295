package layout

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/types"
)

// Account type tags of the stake pool program
const (
	AccountTypeUninitialized uint8 = iota
	AccountTypeStakePool
	AccountTypeValidatorList
)

// Writer encodes borsh fields in order and keeps the first error. It is
// shared by the account encoders and the instruction data builders.
type Writer struct {
	buf bytes.Buffer
	enc *bin.Encoder
	err error
}

// NewWriter returns an empty Writer
func NewWriter() *Writer {
	w := &Writer{}
	w.enc = bin.NewBorshEncoder(&w.buf)
	return w
}

func (w *Writer) U8(v uint8) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, bin.LE)
	}
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, bin.LE)
	}
	return w
}

func (w *Writer) I64(v int64) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, bin.LE)
	}
	return w
}

func (w *Writer) F64(v float64) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteFloat64(v, bin.LE)
	}
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
	return w
}

func (w *Writer) Pubkey(pk solana.PublicKey) *Writer {
	if w.err == nil {
		w.err = w.enc.WriteBytes(pk[:], false)
	}
	return w
}

// OptPubkey writes a borsh Option<Pubkey>
func (w *Writer) OptPubkey(pk *solana.PublicKey) *Writer {
	if pk == nil {
		return w.U8(0)
	}
	return w.U8(1).Pubkey(*pk)
}

func (w *Writer) Fee(f types.Fee) *Writer {
	return w.U64(f.Denominator).U64(f.Numerator)
}

func (w *Writer) FutureFee(f types.FutureEpochFee) *Writer {
	w.U8(uint8(f.Kind))
	if f.Kind != types.FutureEpochFeeNone {
		w.Fee(f.Fee)
	}
	return w
}

func (w *Writer) Lockup(l types.Lockup) *Writer {
	return w.I64(l.UnixTimestamp).U64(l.Epoch).Pubkey(l.Custodian)
}

// Bytes returns the encoded data or the first write error
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// EncodeStakePool encodes a pool account
func EncodeStakePool(p *types.StakePool) ([]byte, error) {
	w := NewWriter()
	w.U8(AccountTypeStakePool).
		Pubkey(p.Manager).
		Pubkey(p.Staker).
		Pubkey(p.StakeDepositAuthority).
		U8(p.StakeWithdrawBumpSeed).
		Pubkey(p.ValidatorList).
		Pubkey(p.ReserveStake).
		Pubkey(p.PoolMint).
		Pubkey(p.ManagerFeeAccount).
		Pubkey(p.TokenProgramID).
		U64(p.TotalLamports).
		U64(p.PoolTokenSupply).
		U64(p.LastUpdateEpoch).
		Lockup(p.Lockup).
		Fee(p.EpochFee).
		FutureFee(p.NextEpochFee).
		OptPubkey(p.PreferredDepositValidator).
		OptPubkey(p.PreferredWithdrawValidator).
		Fee(p.StakeDepositFee).
		Fee(p.StakeWithdrawalFee).
		FutureFee(p.NextStakeWithdrawalFee).
		U8(p.StakeReferralFee).
		OptPubkey(p.SolDepositAuthority).
		Fee(p.SolDepositFee).
		U8(p.SolReferralFee).
		OptPubkey(p.SolWithdrawAuthority).
		Fee(p.SolWithdrawalFee).
		FutureFee(p.NextSolWithdrawalFee).
		U64(p.LastEpochPoolTokenSupply).
		U64(p.LastEpochTotalLamports)
	return w.Bytes()
}

// EncodeValidatorList encodes a validator list account, zero-padding the
// data to hold MaxValidators entries like the on-ledger account.
func EncodeValidatorList(l *types.ValidatorList) ([]byte, error) {
	w := NewWriter()
	w.U8(AccountTypeValidatorList).U32(l.Header.MaxValidators).U32(uint32(len(l.Validators)))
	for _, v := range l.Validators {
		w.U64(v.ActiveStakeLamports).
			U64(v.TransientStakeLamports).
			U64(v.LastUpdateEpoch).
			U64(v.TransientSeedSuffix).
			U32(v.Unused).
			U32(v.ValidatorSeedSuffix).
			U8(uint8(v.Status)).
			Pubkey(v.VoteAccount)
	}
	data, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	if spare := int(l.Header.MaxValidators) - len(l.Validators); spare > 0 {
		data = append(data, make([]byte, spare*ValidatorStakeInfoSize)...)
	}
	return data, nil
}

// EncodeStakeState encodes a stake account padded to StakeStateSize
func EncodeStakeState(s types.StakeState) ([]byte, error) {
	w := NewWriter()
	w.U32(uint32(s.Kind))
	if s.Kind == types.StakeStateInitialized || s.Kind == types.StakeStateStake {
		w.U64(s.Meta.RentExemptReserve).
			Pubkey(s.Meta.Staker).
			Pubkey(s.Meta.Withdrawer).
			Lockup(s.Meta.Lockup)
	}
	if s.Kind == types.StakeStateStake {
		w.Pubkey(s.Delegation.VoterPubkey).
			U64(s.Delegation.Stake).
			U64(s.Delegation.ActivationEpoch).
			U64(s.Delegation.DeactivationEpoch).
			F64(s.Delegation.WarmupCooldownRate).
			U64(s.CreditsObserved).
			U8(s.Flags)
	}
	data, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	if len(data) < types.StakeStateSize {
		data = append(data, make([]byte, types.StakeStateSize-len(data))...)
	}
	return data, nil
}

// EncodeClock encodes the clock sysvar
func EncodeClock(c types.Clock) ([]byte, error) {
	return NewWriter().
		U64(c.Slot).
		I64(c.EpochStartTimestamp).
		U64(c.Epoch).
		U64(c.LeaderScheduleEpoch).
		I64(c.UnixTimestamp).
		Bytes()
}

// EncodeRent encodes the rent sysvar
func EncodeRent(r types.Rent) ([]byte, error) {
	return NewWriter().
		U64(r.LamportsPerByteYear).
		F64(r.ExemptionThreshold).
		U8(r.BurnPercent).
		Bytes()
}
