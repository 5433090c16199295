package syncer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/batch"
	"github.com/cuemby/spoolctl/pkg/fees"
	"github.com/cuemby/spoolctl/pkg/journal"
	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/log"
	"github.com/cuemby/spoolctl/pkg/metrics"
	"github.com/cuemby/spoolctl/pkg/reconciler"
	"github.com/cuemby/spoolctl/pkg/signer"
	"github.com/cuemby/spoolctl/pkg/submit"
	"github.com/cuemby/spoolctl/pkg/types"
)

// Syncer fetches a pool, reconciles it against a declared config and
// submits the resulting batches
type Syncer struct {
	client ledger.Client
	cfg    Config
}

// Config holds configuration for creating a Syncer
type Config struct {
	// Payer pays for every transaction and stands in for authorities the
	// config leaves out
	Payer signer.Signer
	Mode  types.SendMode

	// Program, when set, must own the pool
	Program *types.Program

	Estimator *fees.Estimator
	Confirm   ledger.ConfirmConfig

	// Journal records submitted runs when set
	Journal journal.Store

	// Out receives change summaries, stdout when nil
	Out io.Writer
}

// New creates a Syncer
func New(client ledger.Client, cfg Config) *Syncer {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Estimator == nil {
		cfg.Estimator = fees.NewEstimator(client, 0)
	}
	return &Syncer{client: client, cfg: cfg}
}

// fetch reads the pool at address and checks it is owned by the expected
// program. declared is the program named by a config file, if any.
func (s *Syncer) fetch(ctx context.Context, address solana.PublicKey, declared *types.Program) (*ledger.PoolSnapshot, error) {
	snap, err := ledger.FetchPool(ctx, s.client, address)
	if err != nil {
		return nil, err
	}

	for _, want := range []*types.Program{s.cfg.Program, declared} {
		if want != nil && !want.ID.Equals(snap.Program.ID) {
			return nil, fmt.Errorf("%w: pool %s is owned by %s, not %s", reconciler.ErrValidation, address, snap.Program.ID, want)
		}
	}

	metrics.ObservePool(snap.Pool, snap.ValidatorList, snap.Reserve.Lamports)
	logger := log.WithPool(address.String())
	logger.Debug().
		Str("program", snap.Program.String()).
		Uint64("epoch", snap.Clock.Epoch).
		Int("validators", len(snap.ValidatorList.Validators)).
		Uint64("reserve", snap.Reserve.Lamports).
		Msg("Fetched pool")
	return snap, nil
}

// authorize checks that got is the authority of record
func authorize(role string, want solana.PublicKey, got signer.Signer) error {
	if got == nil {
		return fmt.Errorf("%w: no %s given, expecting %s", reconciler.ErrAuthorizationMismatch, role, want)
	}
	if !got.PublicKey().Equals(want) {
		return fmt.Errorf("%w: wrong %s, expecting %s, got %s", reconciler.ErrAuthorizationMismatch, role, want, got.PublicKey())
	}
	return nil
}

// plan chunks ops into batches paid by the payer
func (s *Syncer) plan(label string, signers *signer.Set, ops []batch.Operation) []*batch.Batch {
	return batch.Plan(label, s.cfg.Payer.PublicKey(), signers, ops)
}

// execute submits batches as one journal run of command
func (s *Syncer) execute(ctx context.Context, command string, pool solana.PublicKey, batches []*batch.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	logger := log.WithPool(pool.String())
	logger.Info().
		Str("command", command).
		Str("mode", string(s.cfg.Mode)).
		Int("batches", len(batches)).
		Msg("Submitting batches")

	var runID string
	if s.cfg.Journal != nil {
		run, err := s.cfg.Journal.StartRun(command, pool.String(), string(s.cfg.Mode))
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to start journal run")
		} else {
			runID = run.ID
		}
	}

	sub := submit.New(s.client, submit.Config{
		Mode:      s.cfg.Mode,
		Estimator: s.cfg.Estimator,
		Confirm:   s.cfg.Confirm,
		Out:       s.cfg.Out,
		Journal:   s.cfg.Journal,
		RunID:     runID,
	})
	err := sub.Submit(ctx, batches)

	if runID != "" {
		if ferr := s.cfg.Journal.FinishRun(runID, err); ferr != nil {
			logger.Warn().Err(ferr).Str("run", runID).Msg("Failed to finish journal run")
		}
	}
	return err
}
