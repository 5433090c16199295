package submit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/batch"
	"github.com/cuemby/spoolctl/pkg/fees"
	"github.com/cuemby/spoolctl/pkg/journal"
	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/log"
	"github.com/cuemby/spoolctl/pkg/metrics"
	"github.com/cuemby/spoolctl/pkg/signer"
	"github.com/cuemby/spoolctl/pkg/types"
)

// ErrSubmission is wrapped by every error that stops a run of batches
var ErrSubmission = errors.New("submission failed")

// Config holds submitter configuration
type Config struct {
	Mode      types.SendMode
	Estimator *fees.Estimator
	Confirm   ledger.ConfirmConfig

	// Out receives dumped messages, stdout when nil
	Out io.Writer

	// Journal records every batch of the run RunID when set
	Journal journal.Store
	RunID   string
}

// Submitter turns batches into transactions and dumps, simulates or sends
// them in order, stopping at the first failure.
type Submitter struct {
	client ledger.Client
	cfg    Config
}

// New creates a submitter
func New(client ledger.Client, cfg Config) *Submitter {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Confirm == (ledger.ConfirmConfig{}) {
		cfg.Confirm = ledger.DefaultConfirmConfig
	}
	if cfg.Estimator == nil {
		cfg.Estimator = fees.NewEstimator(client, 0)
	}
	return &Submitter{client: client, cfg: cfg}
}

// Submit processes batches in order. Batches after a failed one are not
// attempted; the ones before it have already landed in send mode.
func (s *Submitter) Submit(ctx context.Context, batches []*batch.Batch) error {
	for _, b := range batches {
		rec, err := s.submit(ctx, b)
		if err != nil {
			rec.Status = journal.StatusFailed
			rec.Error = err.Error()
		}
		metrics.BatchesTotal.WithLabelValues(string(s.cfg.Mode), string(rec.Status)).Inc()
		s.record(rec)

		if err != nil {
			return fmt.Errorf("%w: batch %d/%d (%s): %w", ErrSubmission, b.Index, b.Total, b.Label, err)
		}
	}
	return nil
}

func (s *Submitter) submit(ctx context.Context, b *batch.Batch) (journal.BatchRecord, error) {
	logger := log.WithBatch(b.Label, b.Index, b.Total)
	rec := newRecord(b)

	if s.cfg.Mode != types.SendModeDumpMsg {
		budget, err := s.cfg.Estimator.Estimate(ctx, b)
		if err != nil {
			return rec, err
		}
		if budget != nil {
			b = b.WithBudget(budget)
			rec.UnitLimit = budget.UnitLimit
			rec.UnitPrice = budget.UnitPrice
			metrics.ComputeUnitsEstimated.Observe(float64(budget.UnitLimit))
		}
	}

	blockhash, err := s.client.LatestBlockhash(ctx)
	if err != nil {
		return rec, fmt.Errorf("failed to get blockhash: %w", err)
	}
	tx, err := b.Transaction(blockhash)
	if err != nil {
		return rec, err
	}
	if err := batch.CheckSize(tx); err != nil {
		return rec, err
	}

	switch s.cfg.Mode {
	case types.SendModeDumpMsg:
		message, err := tx.Message.MarshalBinary()
		if err != nil {
			return rec, fmt.Errorf("failed to serialize message: %w", err)
		}
		rec.Message = base64.StdEncoding.EncodeToString(message)
		rec.Status = journal.StatusDumped
		fmt.Fprintf(s.cfg.Out, "# %d/%d %s\n%s\n", b.Index, b.Total, b.Label, rec.Message)
		return rec, nil

	case types.SendModeSimOnly:
		if err := b.Signers.SignTransaction(tx); err != nil {
			return rec, err
		}
		logger.Info().Msgf("Simulating batch %d/%d", b.Index, b.Total)
		result, err := s.client.Simulate(ctx, tx)
		if err != nil {
			return rec, fmt.Errorf("failed to simulate: %w", err)
		}
		for _, l := range result.Logs {
			logger.Debug().Msg(l)
		}
		if result.Err != nil {
			return rec, fmt.Errorf("simulation failed: %w", result.Err)
		}
		rec.Status = journal.StatusSimulated
		logger.Info().Uint64("units_consumed", result.UnitsConsumed).Msg("Simulation succeeded")
		return rec, nil

	case types.SendModeSendActual:
		if missing := placeholders(tx, b.Signers); len(missing) > 0 {
			return rec, fmt.Errorf("cannot send without the keys of %v", missing)
		}
		if err := b.Signers.SignTransaction(tx); err != nil {
			return rec, err
		}
		logger.Info().Msgf("Sending batch %d/%d", b.Index, b.Total)
		sig, err := s.client.Send(ctx, tx)
		if err != nil {
			return rec, fmt.Errorf("failed to send: %w", err)
		}
		rec.Signature = sig.String()
		if err := ledger.Confirm(ctx, s.client, sig, s.cfg.Confirm); err != nil {
			return rec, err
		}
		rec.Status = journal.StatusSucceeded
		logger.Info().Str("signature", rec.Signature).Msg("Batch confirmed")
		return rec, nil

	default:
		return rec, fmt.Errorf("unknown send mode %q", s.cfg.Mode)
	}
}

func (s *Submitter) record(rec journal.BatchRecord) {
	if s.cfg.Journal == nil {
		return
	}
	rec.RecordedAt = time.Now()
	if err := s.cfg.Journal.RecordBatch(s.cfg.RunID, rec); err != nil {
		log.Logger.Warn().Err(err).Str("run", s.cfg.RunID).Msg("Failed to record batch")
	}
}

func newRecord(b *batch.Batch) journal.BatchRecord {
	rec := journal.BatchRecord{
		Index:      b.Index,
		Total:      b.Total,
		Label:      b.Label,
		Kind:       b.Kind.String(),
		Operations: make([]string, len(b.Operations)),
	}
	for i, op := range b.Operations {
		rec.Operations[i] = op.Label
	}
	return rec
}

// placeholders lists the required signers of tx that cannot sign
func placeholders(tx *solana.Transaction, signers *signer.Set) []solana.PublicKey {
	var keys []solana.PublicKey
	for _, key := range signers.Placeholders() {
		if tx.IsSigner(key) {
			keys = append(keys, key)
		}
	}
	return keys
}
