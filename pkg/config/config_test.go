package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/ledger/ledgertest"
	"github.com/cuemby/spoolctl/pkg/reconciler"
	"github.com/cuemby/spoolctl/pkg/types"
)

var (
	blade = solana.MustPublicKeyFromBase58("BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2")
	fnap  = solana.MustPublicKeyFromBase58("FnAPJkzf19s87sm24Qhv6bHZMZvZ43gjNUBRgjwXpD4v")
	other = solana.MustPublicKeyFromBase58("5rUBjmuwDkcWGE3dV4pt4BS2Lc9mGsZ6ox9d6r3R9XWo")
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"pool.toml", FormatTOML, false},
		{"dir/pool.yaml", FormatYAML, false},
		{"pool.YML", FormatYAML, false},
		{"pool.json", "", true},
		{"pool", "", true},
	}

	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got)
	}
}

func TestLoadPoolFile(t *testing.T) {
	for _, path := range []string{"testdata/pool.toml", "testdata/pool.yaml"} {
		t.Run(path, func(t *testing.T) {
			var f PoolFile
			require.NoError(t, Load(path, &f))
			c := f.Pool

			assert.Equal(t, "spl", c.Program)
			require.NotNil(t, c.MaxValidators)
			assert.Equal(t, uint32(2), *c.MaxValidators)
			require.NotNil(t, c.EpochFee)
			assert.Equal(t, types.Fee{Denominator: 100, Numerator: 6}, *c.EpochFee)
			require.NotNil(t, c.SolDepositReferralFee)
			assert.Zero(t, *c.SolDepositReferralFee)
			assert.Nil(t, c.StakeDepositReferralFee)

			votes, err := c.ValidatorSet()
			require.NoError(t, err)
			assert.Equal(t, []solana.PublicKey{blade, fnap}, votes)

			deposit, withdraw, err := c.Preferred()
			require.NoError(t, err)
			assert.Equal(t, blade, *deposit)
			assert.Nil(t, withdraw)

			program, err := c.ProgramOf()
			require.NoError(t, err)
			assert.Equal(t, types.ProgramSPL, *program)
		})
	}
}

func TestPoolTarget(t *testing.T) {
	var f PoolFile
	require.NoError(t, Load("testdata/pool.toml", &f))

	current := &types.StakePool{
		Manager:              blade,
		Staker:               blade,
		ManagerFeeAccount:    fnap,
		EpochFee:             types.Fee{Denominator: 100, Numerator: 5},
		SolWithdrawalFee:     types.Fee{Denominator: 100, Numerator: 1},
		SolReferralFee:       50,
		StakeReferralFee:     40,
		SolWithdrawAuthority: &fnap,
	}
	target, err := f.Pool.Target(current)
	require.NoError(t, err)

	assert.Equal(t, other, target.Manager)
	assert.Equal(t, blade, target.Staker)
	assert.Equal(t, fnap, target.ManagerFeeAccount, "kept from the pool")
	assert.Equal(t, types.Fee{Denominator: 100, Numerator: 6}, target.EpochFee)
	assert.Equal(t, types.Fee{Denominator: 100, Numerator: 1}, target.SolWithdrawalFee, "kept from the pool")
	assert.Equal(t, uint8(0), target.SolReferralFee)
	assert.Equal(t, uint8(40), target.StakeReferralFee)
	require.NotNil(t, target.SolDepositAuthority)
	assert.Equal(t, fnap, *target.SolDepositAuthority)
	assert.Nil(t, target.SolWithdrawAuthority, "funding authorities left out are cleared")
	assert.Nil(t, target.StakeDepositAuthority)
}

func TestLoadDelegation(t *testing.T) {
	for _, path := range []string{"testdata/delegation.toml", "testdata/delegation.yaml"} {
		t.Run(path, func(t *testing.T) {
			var f DelegationFile
			require.NoError(t, Load(path, &f))

			addr, err := f.Pool.Address()
			require.NoError(t, err)
			assert.Equal(t, "8VpRhuxa7sUUepdY3kQiTmX9rS5vx4WgaXiAnXq4KCtr", addr.String())

			targets, err := ValidateDelegation(&f.Pool)
			require.NoError(t, err)
			assert.Equal(t, []reconciler.Target{
				{Vote: fnap, Lamports: 3_000_000_000},
				{Vote: other, Lamports: 1_000_000_000},
				{Vote: blade, Remainder: true},
			}, targets)
		})
	}
}

func TestLoadDelegationTargetTable(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    uint64
		wantErr bool
	}{
		{name: "inline table", target: "target = { lamports = 5 }", want: 5},
		{name: "sub table", target: "[pool.validators.target]\nlamports = 7", want: 7},
		{name: "misspelled lamports", target: "target = { lamprts = 5 }", wantErr: true},
		{name: "extra key", target: "target = { lamports = 5, extra = 1 }", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := `[pool]
pool = "8VpRhuxa7sUUepdY3kQiTmX9rS5vx4WgaXiAnXq4KCtr"
[[pool.validators]]
vote = "BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2"
` + tt.target + "\n"

			var f DelegationFile
			err := Load(writeFile(t, "d.toml", content), &f)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, f.Pool.Validators, 1)
			assert.Equal(t, DelegationTarget{Lamports: tt.want}, f.Pool.Validators[0].Target)
		})
	}
}

func TestDelegationErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		loadErr bool
	}{
		{
			name: "two remainders toml",
			file: "d.toml",
			content: `[pool]
pool = "8VpRhuxa7sUUepdY3kQiTmX9rS5vx4WgaXiAnXq4KCtr"
[[pool.validators]]
vote = "BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2"
target = "remainder"
[[pool.validators]]
vote = "FnAPJkzf19s87sm24Qhv6bHZMZvZ43gjNUBRgjwXpD4v"
target = "remainder"
`,
		},
		{
			name: "two remainders yaml",
			file: "d.yaml",
			content: `pool:
  pool: 8VpRhuxa7sUUepdY3kQiTmX9rS5vx4WgaXiAnXq4KCtr
  validators:
    - {vote: BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2, target: remainder}
    - {vote: FnAPJkzf19s87sm24Qhv6bHZMZvZ43gjNUBRgjwXpD4v, target: remainder}
`,
		},
		{
			name: "duplicate validator",
			file: "d.toml",
			content: `[pool]
pool = "8VpRhuxa7sUUepdY3kQiTmX9rS5vx4WgaXiAnXq4KCtr"
[[pool.validators]]
vote = "BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2"
target = 1
[[pool.validators]]
vote = "BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2"
target = 2
`,
		},
		{
			name: "negative target",
			file: "d.toml",
			content: `[pool]
pool = "x"
[[pool.validators]]
vote = "BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2"
target = -1
`,
			loadErr: true,
		},
		{
			name: "unknown target",
			file: "d.yaml",
			content: `pool:
  validators:
    - {vote: BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2, target: everything}
`,
			loadErr: true,
		},
		{
			name: "misspelled key",
			file: "d.toml",
			content: `[pool]
pool = "8VpRhuxa7sUUepdY3kQiTmX9rS5vx4WgaXiAnXq4KCtr"
stakr = "BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2"
`,
			loadErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f DelegationFile
			err := Load(writeFile(t, tt.file, tt.content), &f)
			if tt.loadErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			_, err = ValidateDelegation(&f.Pool)
			require.Error(t, err)
			assert.True(t, errors.Is(err, reconciler.ErrValidation))
		})
	}
}

func TestFromSnapshotRoundTrip(t *testing.T) {
	l := ledgertest.New(10)
	pool := l.NewPool(types.ProgramSanctumSPL, blade, fnap, 5_000_000_000)
	pool.AddValidator(other, 1_000_000_000)
	pool.State.PreferredWithdrawValidator = &other
	pool.State.NextEpochFee = types.FutureEpochFee{Kind: types.FutureEpochFeeOne, Fee: types.Fee{Denominator: 100, Numerator: 7}}
	pool.Save()

	snap, err := ledger.FetchPool(context.Background(), l, pool.Address)
	require.NoError(t, err)
	out := FromSnapshot(snap)

	assert.Equal(t, "sanctum-spl", out.Pool.Program)
	require.Len(t, out.Pool.Validators, 1)
	assert.Equal(t, pool.ValidatorStakeAccount(pool.List.Validators[0]).String(), out.Pool.Validators[0].ValidatorStakeAccount)
	require.NotNil(t, out.Pool.NextEpochFee)
	assert.Equal(t, uint64(7), out.Pool.NextEpochFee.Numerator)
	require.NotNil(t, out.Pool.Reserve.Lamports)
	assert.Equal(t, uint64(5_000_000_000), *out.Pool.Reserve.Lamports)

	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, format, out))

			var back PoolFile
			require.NoError(t, Load(writeFile(t, "pool."+string(format), buf.String()), &back))
			assert.Equal(t, out.Pool.Pool, back.Pool.Pool)
			require.Len(t, back.Pool.Validators, 1)
			assert.Equal(t, out.Pool.Validators[0].Vote, back.Pool.Validators[0].Vote)
			assert.Equal(t, out.Pool.Validators[0].TransientStakeAccount, back.Pool.Validators[0].TransientStakeAccount)
			assert.Equal(t, out.Pool.PreferredWithdrawValidator, back.Pool.PreferredWithdrawValidator)
			assert.Equal(t, out.Pool.EpochFee, back.Pool.EpochFee)

			// a listed pool reconciles to no change against itself
			target, err := back.Pool.Target(pool.State)
			require.NoError(t, err)
			changes := reconciler.ReconcileParameters(pool.State, target, pool.Derive.DepositAuthority(pool.Address))
			assert.Empty(t, changes)
		})
	}
}
