package reconciler

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/cuemby/spoolctl/pkg/types"
)

const lamportsPerSOL = 1_000_000_000

// StakeAmount is the stake to move in a manual adjustment, in lamports, or
// everything that can be moved
type StakeAmount struct {
	Lamports uint64
	All      bool
}

func (a StakeAmount) String() string {
	if a.All {
		return "all"
	}
	return fmt.Sprintf("%d lamports", a.Lamports)
}

// ParseStakeAmount parses an amount of SOL with up to nine decimals, or
// "all"
func ParseStakeAmount(s string) (StakeAmount, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return StakeAmount{All: true}, nil
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" || len(frac) > 9 || strings.HasPrefix(whole, "-") || strings.HasPrefix(whole, "+") {
		return StakeAmount{}, fmt.Errorf("%w: invalid SOL amount %q", ErrValidation, s)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", 9-len(frac))

	w, err := uint256.FromDecimal(whole)
	if err != nil {
		return StakeAmount{}, fmt.Errorf("%w: invalid SOL amount %q", ErrValidation, s)
	}
	f, err := uint256.FromDecimal(frac)
	if err != nil {
		return StakeAmount{}, fmt.Errorf("%w: invalid SOL amount %q", ErrValidation, s)
	}
	total := new(uint256.Int).Mul(w, uint256.NewInt(lamportsPerSOL))
	total.Add(total, f)
	if !total.IsUint64() {
		return StakeAmount{}, fmt.Errorf("%w: SOL amount %q is too large", ErrValidation, s)
	}
	return StakeAmount{Lamports: total.Uint64()}, nil
}

// IncreaseTarget is the target that raises a validator's projected stake
// by amount. All asks for everything the reserve can give above its
// margin.
func IncreaseTarget(vote solana.PublicKey, projected uint64, amount StakeAmount, reserveLamports uint64, rent types.Rent) Target {
	add := amount.Lamports
	if amount.All {
		add = saturatingSub(reserveLamports, ReserveMargin(rent))
	}
	return Target{Vote: vote, Lamports: saturatingAdd(projected, add)}
}

// DecreaseTarget is the target that lowers a validator's projected stake
// by amount. All takes the validator down to the floor.
func DecreaseTarget(vote solana.PublicKey, projected uint64, amount StakeAmount) Target {
	if amount.All {
		return Target{Vote: vote}
	}
	return Target{Vote: vote, Lamports: saturatingSub(projected, amount.Lamports)}
}
