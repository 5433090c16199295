package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
)

// ErrNotConfirmed is returned while a transaction has not reached the
// requested commitment yet.
var ErrNotConfirmed = errors.New("transaction not confirmed")

// ConfirmConfig bounds confirmation polling
type ConfirmConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Timeout         time.Duration
}

// DefaultConfirmConfig waits a little over a blockhash lifetime
var DefaultConfirmConfig = ConfirmConfig{
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     4 * time.Second,
	Timeout:         90 * time.Second,
}

// Confirm polls the status of sig until it is confirmed, failed, or the
// timeout elapses. A transaction that landed with an error is returned as
// an error without further polling.
func Confirm(ctx context.Context, c Client, sig solana.Signature, cfg ConfirmConfig) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cfg.InitialInterval
	expBackoff.MaxInterval = cfg.MaxInterval
	expBackoff.MaxElapsedTime = cfg.Timeout

	err := backoff.Retry(func() error {
		status, err := c.SignatureStatus(ctx, sig)
		if err != nil {
			return err
		}
		if status.Err != nil {
			return backoff.Permanent(fmt.Errorf("transaction %s failed: %w", sig, status.Err))
		}
		if !status.Confirmed {
			return ErrNotConfirmed
		}
		return nil
	}, backoff.WithContext(expBackoff, ctx))
	if err != nil {
		return fmt.Errorf("failed to confirm %s: %w", sig, err)
	}
	return nil
}
