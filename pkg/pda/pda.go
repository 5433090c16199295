package pda

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cuemby/spoolctl/pkg/types"
)

const cacheSize = 4096

var (
	seedWithdraw  = []byte("withdraw")
	seedDeposit   = []byte("deposit")
	seedTransient = []byte("transient")
	seedEphemeral = []byte("ephemeral")
)

// Deriver derives the program addresses of one stake pool program deployment.
// Results are cached.
type Deriver struct {
	program solana.PublicKey
	cache   *lru.Cache[string, solana.PublicKey]
}

// NewDeriver creates a deriver for the given deployment
func NewDeriver(program types.Program) *Deriver {
	cache, err := lru.New[string, solana.PublicKey](cacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Deriver{program: program.ID, cache: cache}
}

// Program returns the program id addresses are derived for
func (d *Deriver) Program() solana.PublicKey {
	return d.program
}

// WithdrawAuthority is the pool's stake withdraw authority
func (d *Deriver) WithdrawAuthority(pool solana.PublicKey) solana.PublicKey {
	return d.find(pool[:], seedWithdraw)
}

// DepositAuthority is the pool's default stake deposit authority
func (d *Deriver) DepositAuthority(pool solana.PublicKey) solana.PublicKey {
	return d.find(pool[:], seedDeposit)
}

// ValidatorStakeAccount is the stake account holding a validator's active stake.
// A zero seed is omitted from the derivation.
func (d *Deriver) ValidatorStakeAccount(pool, vote solana.PublicKey, seed uint32) solana.PublicKey {
	if seed == 0 {
		return d.find(vote[:], pool[:])
	}
	s := make([]byte, 4)
	binary.LittleEndian.PutUint32(s, seed)
	return d.find(vote[:], pool[:], s)
}

// TransientStakeAccount is the stake account holding a validator's in-flight stake
func (d *Deriver) TransientStakeAccount(pool, vote solana.PublicKey, seed uint64) solana.PublicKey {
	return d.find(seedTransient, vote[:], pool[:], u64Seed(seed))
}

// EphemeralStakeAccount is the scratch account used by additional stake changes
func (d *Deriver) EphemeralStakeAccount(pool solana.PublicKey, seed uint64) solana.PublicKey {
	return d.find(seedEphemeral, pool[:], u64Seed(seed))
}

func u64Seed(seed uint64) []byte {
	s := make([]byte, 8)
	binary.LittleEndian.PutUint64(s, seed)
	return s
}

func (d *Deriver) find(seeds ...[]byte) solana.PublicKey {
	key := fmt.Sprintf("%x", seeds)
	if addr, ok := d.cache.Get(key); ok {
		return addr
	}
	addr, _, err := solana.FindProgramAddress(seeds, d.program)
	if err != nil {
		// only when every bump seed lands on the curve
		panic(fmt.Sprintf("failed to find program address: %v", err))
	}
	d.cache.Add(key, addr)
	return addr
}
