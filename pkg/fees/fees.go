package fees

import (
	"context"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/cuemby/spoolctl/pkg/batch"
	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/log"
)

const (
	// Simulated compute units are scaled by bufferNum/bufferDen to leave
	// headroom.
	bufferNum = 11
	bufferDen = 10

	// BudgetInstructionUnits is the cost of the two compute budget
	// instructions themselves, which the simulation does not account for.
	BudgetInstructionUnits uint32 = 300

	microLamportsPerLamport = 1_000_000
)

// Simulator runs a transaction without committing it
type Simulator interface {
	Simulate(ctx context.Context, tx *solana.Transaction) (*ledger.SimulationResult, error)
}

// Estimator derives a compute budget for a batch by simulating it
type Estimator struct {
	sim      Simulator
	feeLimit uint64
}

// NewEstimator creates an estimator spending at most feeLimit lamports of
// priority fee per batch. A feeLimit of zero disables estimation.
func NewEstimator(sim Simulator, feeLimit uint64) *Estimator {
	return &Estimator{sim: sim, feeLimit: feeLimit}
}

// Enabled reports whether batches get a compute budget
func (e *Estimator) Enabled() bool {
	return e.feeLimit > 0
}

// Estimate simulates b with placeholder budget instructions and returns the
// budget to attach, or nil when estimation is disabled.
func (e *Estimator) Estimate(ctx context.Context, b *batch.Batch) (*batch.Budget, error) {
	if !e.Enabled() {
		return nil, nil
	}

	logger := log.WithComponent("fees")
	placeholder := batch.SimulationBudget
	tx, err := b.WithBudget(&placeholder).Transaction(solana.Hash{})
	if err != nil {
		return nil, err
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	result, err := e.sim.Simulate(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate batch %d: %w", b.Index, err)
	}
	if result.Err != nil {
		for _, l := range result.Logs {
			logger.Debug().Str("batch", b.Label).Msg(l)
		}
		return nil, fmt.Errorf("simulation of batch %d failed: %w", b.Index, result.Err)
	}

	units := BufferUnits(result.UnitsConsumed)
	budget := &batch.Budget{
		UnitLimit: units,
		UnitPrice: UnitPrice(units, e.feeLimit),
	}
	logger.Debug().
		Int("batch", b.Index).
		Uint64("units_consumed", result.UnitsConsumed).
		Uint32("unit_limit", budget.UnitLimit).
		Uint64("unit_price", budget.UnitPrice).
		Msg("Estimated compute budget")
	return budget, nil
}

// BufferUnits scales consumed units by 1.1, rounding up, and adds the cost
// of the budget instructions, saturating at the largest u32.
func BufferUnits(consumed uint64) uint32 {
	if consumed >= math.MaxUint32 {
		return math.MaxUint32
	}
	buffered := (consumed*bufferNum + bufferDen - 1) / bufferDen
	if buffered >= math.MaxUint32 {
		return math.MaxUint32
	}
	units := uint32(buffered)
	if units > math.MaxUint32-BudgetInstructionUnits {
		return math.MaxUint32
	}
	return units + BudgetInstructionUnits
}

// UnitPrice is the micro-lamport price per unit that spends at most
// feeLimit lamports over units, floored at 1.
func UnitPrice(units uint32, feeLimit uint64) uint64 {
	if units == 0 {
		return 1
	}
	price := new(uint256.Int).Mul(uint256.NewInt(feeLimit), uint256.NewInt(microLamportsPerLamport))
	price.Div(price, uint256.NewInt(uint64(units)))
	if !price.IsUint64() {
		return math.MaxUint64
	}
	if p := price.Uint64(); p > 1 {
		return p
	}
	return 1
}
