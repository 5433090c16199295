package layout

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/spoolctl/pkg/types"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func TestStakePoolRoundTrip(t *testing.T) {
	preferred := newKey()
	solDeposit := newKey()
	pool := &types.StakePool{
		AccountType:               AccountTypeStakePool,
		Manager:                   newKey(),
		Staker:                    newKey(),
		StakeDepositAuthority:     newKey(),
		StakeWithdrawBumpSeed:     254,
		ValidatorList:             newKey(),
		ReserveStake:              newKey(),
		PoolMint:                  newKey(),
		ManagerFeeAccount:         newKey(),
		TokenProgramID:            solana.TokenProgramID,
		TotalLamports:             42_000_000_000,
		PoolTokenSupply:           41_000_000_000,
		LastUpdateEpoch:           600,
		EpochFee:                  types.Fee{Denominator: 100, Numerator: 6},
		NextEpochFee:              types.FutureEpochFee{Kind: types.FutureEpochFeeTwo, Fee: types.Fee{Denominator: 100, Numerator: 5}},
		PreferredDepositValidator: &preferred,
		StakeDepositFee:           types.Fee{Denominator: 1000, Numerator: 1},
		StakeWithdrawalFee:        types.Fee{Denominator: 1000, Numerator: 2},
		StakeReferralFee:          50,
		SolDepositAuthority:       &solDeposit,
		SolReferralFee:            10,
		LastEpochTotalLamports:    40_000_000_000,
	}

	data, err := EncodeStakePool(pool)
	require.NoError(t, err)

	decoded, err := DecodeStakePool(data)
	require.NoError(t, err)
	assert.Equal(t, pool, decoded)
}

func TestDecodeStakePoolRejectsWrongAccountType(t *testing.T) {
	data, err := EncodeStakePool(&types.StakePool{})
	require.NoError(t, err)
	data[0] = AccountTypeValidatorList

	_, err = DecodeStakePool(data)
	assert.Error(t, err)
}

func TestDecodeStakePoolTruncated(t *testing.T) {
	data, err := EncodeStakePool(&types.StakePool{})
	require.NoError(t, err)

	_, err = DecodeStakePool(data[:100])
	assert.Error(t, err)
}

func TestValidatorListRoundTrip(t *testing.T) {
	list := &types.ValidatorList{
		Header: types.ValidatorListHeader{AccountType: AccountTypeValidatorList, MaxValidators: 5},
		Validators: []types.ValidatorStakeInfo{
			{
				ActiveStakeLamports:    5_000_000_000,
				TransientStakeLamports: 0,
				LastUpdateEpoch:        600,
				TransientSeedSuffix:    3,
				ValidatorSeedSuffix:    0,
				Status:                 types.StakeStatusActive,
				VoteAccount:            newKey(),
			},
			{
				ActiveStakeLamports: 3_282_880,
				LastUpdateEpoch:     599,
				ValidatorSeedSuffix: 7,
				Status:              types.StakeStatusDeactivatingValidator,
				VoteAccount:         newKey(),
			},
		},
	}

	data, err := EncodeValidatorList(list)
	require.NoError(t, err)
	assert.Len(t, data, 9+5*ValidatorStakeInfoSize)

	decoded, err := DecodeValidatorList(data)
	require.NoError(t, err)
	assert.Equal(t, list, decoded)
}

func TestDecodeValidatorListLengthExceedsData(t *testing.T) {
	data, err := EncodeValidatorList(&types.ValidatorList{
		Header: types.ValidatorListHeader{AccountType: AccountTypeValidatorList},
	})
	require.NoError(t, err)
	data[5] = 3

	_, err = DecodeValidatorList(data)
	assert.Error(t, err)
}

func TestStakeStateRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		state types.StakeState
	}{
		{
			name:  "uninitialized",
			state: types.StakeState{Kind: types.StakeStateUninitialized},
		},
		{
			name: "initialized",
			state: types.StakeState{
				Kind: types.StakeStateInitialized,
				Meta: types.Meta{RentExemptReserve: 2_282_880, Staker: newKey(), Withdrawer: newKey()},
			},
		},
		{
			name: "delegated",
			state: types.StakeState{
				Kind: types.StakeStateStake,
				Meta: types.Meta{RentExemptReserve: 2_282_880, Staker: newKey(), Withdrawer: newKey()},
				Delegation: types.Delegation{
					VoterPubkey:        newKey(),
					Stake:              1_000_000_000,
					ActivationEpoch:    12,
					DeactivationEpoch:  math.MaxUint64,
					WarmupCooldownRate: 0.25,
				},
				CreditsObserved: 99,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeStakeState(tt.state)
			require.NoError(t, err)
			assert.Len(t, data, types.StakeStateSize)

			decoded, err := DecodeStakeState(data)
			require.NoError(t, err)
			assert.Equal(t, tt.state, decoded)
		})
	}
}

func TestSysvarRoundTrip(t *testing.T) {
	clock := types.Clock{Slot: 1000, EpochStartTimestamp: 17, Epoch: 601, LeaderScheduleEpoch: 602, UnixTimestamp: 1_700_000_000}
	data, err := EncodeClock(clock)
	require.NoError(t, err)
	assert.Len(t, data, 40)
	decodedClock, err := DecodeClock(data)
	require.NoError(t, err)
	assert.Equal(t, clock, decodedClock)

	data, err = EncodeRent(types.DefaultRent)
	require.NoError(t, err)
	assert.Len(t, data, 17)
	decodedRent, err := DecodeRent(data)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultRent, decodedRent)
}
