// Package ledgertest provides an in-memory ledger for tests.
package ledgertest

import (
	"context"
	"math"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/layout"
	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/pda"
	"github.com/cuemby/spoolctl/pkg/types"
)

// Ledger is an in-memory ledger.Client. Sent transactions are recorded but
// never executed.
type Ledger struct {
	mu sync.Mutex

	accounts map[solana.PublicKey]*ledger.Account

	Blockhash     solana.Hash
	UnitsConsumed uint64
	SimErr        error
	SendErr       error
	TxErr         error

	Simulated []*solana.Transaction
	Sent      []*solana.Transaction

	// Reads counts GetAccounts calls
	Reads int
}

// New creates a ledger at epoch with default rent
func New(epoch uint64) *Ledger {
	l := &Ledger{
		accounts:      make(map[solana.PublicKey]*ledger.Account),
		Blockhash:     solana.Hash{1},
		UnitsConsumed: 50_000,
	}
	l.SetClock(epoch)
	l.SetRent(types.DefaultRent)
	return l
}

// SetAccount stores raw account data
func (l *Ledger) SetAccount(address, owner solana.PublicKey, lamports uint64, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &ledger.Account{Address: address, Owner: owner, Lamports: lamports, Data: data}
}

// SetClock stores the clock sysvar
func (l *Ledger) SetClock(epoch uint64) {
	data, err := layout.EncodeClock(types.Clock{Slot: epoch * 432_000, Epoch: epoch, LeaderScheduleEpoch: epoch + 1})
	if err != nil {
		panic(err)
	}
	l.SetAccount(solana.SysVarClockPubkey, solana.SystemProgramID, 1_169_280, data)
}

// SetRent stores the rent sysvar
func (l *Ledger) SetRent(rent types.Rent) {
	data, err := layout.EncodeRent(rent)
	if err != nil {
		panic(err)
	}
	l.SetAccount(solana.SysVarRentPubkey, solana.SystemProgramID, 1_009_200, data)
}

// SetStake stores a stake account
func (l *Ledger) SetStake(address solana.PublicKey, lamports uint64, state types.StakeState) {
	data, err := layout.EncodeStakeState(state)
	if err != nil {
		panic(err)
	}
	l.SetAccount(address, solana.StakeProgramID, lamports, data)
}

// Delete removes an account
func (l *Ledger) Delete(address solana.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, address)
}

func (l *Ledger) GetAccounts(_ context.Context, keys []solana.PublicKey) ([]*ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Reads++
	out := make([]*ledger.Account, len(keys))
	for i, k := range keys {
		if acc, ok := l.accounts[k]; ok {
			c := *acc
			out[i] = &c
		}
	}
	return out, nil
}

func (l *Ledger) LatestBlockhash(context.Context) (solana.Hash, error) {
	return l.Blockhash, nil
}

func (l *Ledger) Simulate(_ context.Context, tx *solana.Transaction) (*ledger.SimulationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Simulated = append(l.Simulated, tx)
	return &ledger.SimulationResult{
		Err:           l.SimErr,
		Logs:          []string{"Program log: simulated"},
		UnitsConsumed: l.UnitsConsumed,
	}, nil
}

func (l *Ledger) Send(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.SendErr != nil {
		return solana.Signature{}, l.SendErr
	}
	l.Sent = append(l.Sent, tx)
	return tx.Signatures[0], nil
}

func (l *Ledger) SignatureStatus(context.Context, solana.Signature) (*ledger.SignatureStatus, error) {
	return &ledger.SignatureStatus{Found: true, Confirmed: l.TxErr == nil, Err: l.TxErr}, nil
}

// ActiveStake is a delegated, active stake account state
func ActiveStake(vote solana.PublicKey, stake uint64, rent types.Rent) types.StakeState {
	return types.StakeState{
		Kind: types.StakeStateStake,
		Meta: types.Meta{RentExemptReserve: rent.StakeRentExemption()},
		Delegation: types.Delegation{
			VoterPubkey:        vote,
			Stake:              stake,
			DeactivationEpoch:  math.MaxUint64,
			WarmupCooldownRate: 0.25,
		},
	}
}

// Pool is a pool laid out on a Ledger
type Pool struct {
	Address solana.PublicKey
	Program types.Program
	State   *types.StakePool
	List    *types.ValidatorList
	Derive  *pda.Deriver

	ledger *Ledger
}

// NewPool lays out an empty pool managed by manager and staked by staker
func (l *Ledger) NewPool(program types.Program, manager, staker solana.PublicKey, reserveLamports uint64) *Pool {
	p := &Pool{
		Address: solana.NewWallet().PublicKey(),
		Program: program,
		Derive:  pda.NewDeriver(program),
		List:    &types.ValidatorList{Header: types.ValidatorListHeader{AccountType: layout.AccountTypeValidatorList, MaxValidators: 16}},
		ledger:  l,
	}
	p.State = &types.StakePool{
		AccountType:       layout.AccountTypeStakePool,
		Manager:           manager,
		Staker:            staker,
		ValidatorList:     solana.NewWallet().PublicKey(),
		ReserveStake:      solana.NewWallet().PublicKey(),
		PoolMint:          solana.NewWallet().PublicKey(),
		ManagerFeeAccount: solana.NewWallet().PublicKey(),
		TokenProgramID:    solana.TokenProgramID,
		EpochFee:          types.Fee{Denominator: 100, Numerator: 5},
		SolReferralFee:    50,
		StakeReferralFee:  50,
	}
	p.State.StakeDepositAuthority = p.Derive.DepositAuthority(p.Address)
	p.State.LastUpdateEpoch = l.epoch()
	p.SetReserve(reserveLamports)
	p.Save()
	return p
}

func (l *Ledger) epoch() uint64 {
	acc, _ := l.GetAccounts(context.Background(), []solana.PublicKey{solana.SysVarClockPubkey})
	clock, err := layout.DecodeClock(acc[0].Data)
	if err != nil {
		panic(err)
	}
	return clock.Epoch
}

// SetReserve sets the reserve balance
func (p *Pool) SetReserve(lamports uint64) {
	p.ledger.SetStake(p.State.ReserveStake, lamports, types.StakeState{
		Kind: types.StakeStateInitialized,
		Meta: types.Meta{RentExemptReserve: types.DefaultRent.StakeRentExemption()},
	})
}

// Save writes the pool and validator list accounts
func (p *Pool) Save() {
	data, err := layout.EncodeStakePool(p.State)
	if err != nil {
		panic(err)
	}
	p.ledger.SetAccount(p.Address, p.Program.ID, 5_000_000, data)

	data, err = layout.EncodeValidatorList(p.List)
	if err != nil {
		panic(err)
	}
	p.ledger.SetAccount(p.State.ValidatorList, p.Program.ID, 10_000_000, data)
}

// AddValidator appends an active validator whose stake account holds the
// validator floor plus committed lamports.
func (p *Pool) AddValidator(vote solana.PublicKey, committed uint64) types.ValidatorStakeInfo {
	rent := types.DefaultRent
	entry := types.ValidatorStakeInfo{
		ActiveStakeLamports: types.MinimumValidatorStake(rent) + committed,
		LastUpdateEpoch:     p.State.LastUpdateEpoch,
		Status:              types.StakeStatusActive,
		VoteAccount:         vote,
	}
	p.List.Validators = append(p.List.Validators, entry)
	p.ledger.SetStake(p.ValidatorStakeAccount(entry), entry.ActiveStakeLamports,
		ActiveStake(vote, entry.ActiveStakeLamports-rent.StakeRentExemption(), rent))
	p.Save()
	return entry
}

// SetTransient places lamports in the transient stake account of entry,
// activating in activationEpoch.
func (p *Pool) SetTransient(entry types.ValidatorStakeInfo, lamports, activationEpoch uint64) {
	rent := types.DefaultRent
	state := ActiveStake(entry.VoteAccount, lamports-rent.StakeRentExemption(), rent)
	state.Delegation.ActivationEpoch = activationEpoch
	p.ledger.SetStake(p.TransientStakeAccount(entry), lamports, state)

	for i := range p.List.Validators {
		if p.List.Validators[i].VoteAccount.Equals(entry.VoteAccount) {
			p.List.Validators[i].TransientStakeLamports = lamports
		}
	}
	p.Save()
}

// ValidatorStakeAccount derives the stake account address of entry
func (p *Pool) ValidatorStakeAccount(entry types.ValidatorStakeInfo) solana.PublicKey {
	return p.Derive.ValidatorStakeAccount(p.Address, entry.VoteAccount, entry.ValidatorSeedSuffix)
}

// TransientStakeAccount derives the transient stake account address of entry
func (p *Pool) TransientStakeAccount(entry types.ValidatorStakeInfo) solana.PublicKey {
	return p.Derive.TransientStakeAccount(p.Address, entry.VoteAccount, entry.TransientSeedSuffix)
}
