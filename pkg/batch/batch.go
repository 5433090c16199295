package batch

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"

	"github.com/cuemby/spoolctl/pkg/signer"
)

// MaxTransactionSize is the largest serialized transaction the cluster
// accepts, signatures included.
const MaxTransactionSize = 1232

// MaxUnitLimit is the compute unit ceiling of a single transaction
const MaxUnitLimit uint32 = 1_400_000

// Kind classifies operations by their worst-case size. Operations of
// different kinds never share a batch.
type Kind int

const (
	KindAddValidator Kind = iota
	KindRemoveValidator
	KindStakeChange
	KindParameter
	KindPreferredValidator
	KindUpdateValidatorList
	KindUpdatePool
)

// Ceiling is the maximum number of units of this kind in one transaction.
// A unit is a single operation, or a run of operations bound together
// with BindNext.
func (k Kind) Ceiling() int {
	switch k {
	case KindAddValidator:
		return 7
	case KindRemoveValidator:
		return 5
	case KindStakeChange:
		return 4
	case KindParameter:
		return 13
	case KindPreferredValidator:
		return 2
	default:
		return 1
	}
}

func (k Kind) String() string {
	switch k {
	case KindAddValidator:
		return "add-validator"
	case KindRemoveValidator:
		return "remove-validator"
	case KindStakeChange:
		return "stake-change"
	case KindParameter:
		return "parameter"
	case KindPreferredValidator:
		return "preferred-validator"
	case KindUpdateValidatorList:
		return "update-validator-list"
	case KindUpdatePool:
		return "update-pool"
	default:
		return "unknown"
	}
}

// Operation is one instruction to submit, with what it is for
type Operation struct {
	Kind        Kind
	Label       string
	Instruction solana.Instruction

	// BindNext keeps this operation in the same batch as the one after it
	BindNext bool
}

// Budget is the compute budget annotation of a batch
type Budget struct {
	UnitLimit uint32
	UnitPrice uint64 // micro-lamports per compute unit
}

// SimulationBudget stands in for the real budget while measuring a batch,
// so the simulated transaction has the same shape as the final one.
var SimulationBudget = Budget{UnitLimit: MaxUnitLimit, UnitPrice: 0}

// Fee is the most the budget can cost in lamports
func (b Budget) Fee() uint64 {
	return uint64(b.UnitLimit) * b.UnitPrice / 1_000_000
}

// Instructions returns the compute budget instructions, price first
func (b Budget) Instructions() []solana.Instruction {
	return []solana.Instruction{
		computebudget.NewSetComputeUnitPriceInstruction(b.UnitPrice).Build(),
		computebudget.NewSetComputeUnitLimitInstruction(b.UnitLimit).Build(),
	}
}

// Batch is a transaction's worth of operations
type Batch struct {
	Index      int
	Total      int
	Label      string
	Kind       Kind
	Operations []Operation
	Payer      solana.PublicKey
	Signers    *signer.Set

	// Budget is nil when no compute budget instructions are attached
	Budget *Budget
}

// Instructions returns the instructions of the batch, compute budget first
func (b *Batch) Instructions() []solana.Instruction {
	ixs := make([]solana.Instruction, 0, len(b.Operations)+2)
	if b.Budget != nil {
		ixs = append(ixs, b.Budget.Instructions()...)
	}
	for _, op := range b.Operations {
		ixs = append(ixs, op.Instruction)
	}
	return ixs
}

// Transaction compiles the batch into an unsigned legacy transaction
func (b *Batch) Transaction(blockhash solana.Hash) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(b.Instructions(), blockhash, solana.TransactionPayer(b.Payer))
	if err != nil {
		return nil, fmt.Errorf("failed to compile batch %d: %w", b.Index, err)
	}
	return tx, nil
}

// WithBudget returns a shallow copy of the batch carrying budget
func (b *Batch) WithBudget(budget *Budget) *Batch {
	c := *b
	c.Budget = budget
	return &c
}

// SerializedSize is the wire size of tx once every required signature is
// present.
func SerializedSize(tx *solana.Transaction) (int, error) {
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize message: %w", err)
	}
	n := int(tx.Message.Header.NumRequiredSignatures)
	return shortVecLen(n) + n*solana.SignatureLength + len(message), nil
}

// CheckSize fails when tx would exceed MaxTransactionSize
func CheckSize(tx *solana.Transaction) error {
	size, err := SerializedSize(tx)
	if err != nil {
		return err
	}
	if size > MaxTransactionSize {
		return fmt.Errorf("transaction is %d bytes, limit is %d", size, MaxTransactionSize)
	}
	return nil
}

func shortVecLen(n int) int {
	l := 1
	for n >= 0x80 {
		n >>= 7
		l++
	}
	return l
}
