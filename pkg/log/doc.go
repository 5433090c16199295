/*
Package log provides structured logging for spoolctl using zerolog.

A single package-level Logger is shared by every package. Init configures
it once, from the --log-level and --log-json flags, before any command runs.

# Output

Logs always go to stderr. Stdout is reserved for the change summaries,
validator listings and base64 transactions printed in dump-msg mode, so
that output can be piped without log noise mixed in.

Console output is colored only when stderr is a terminal:

	2026-01-12T10:30:00Z INF Batch submitted batch="sync delegation" index=1 total=2 signature=5Kd...

JSON output carries the same fields:

	{"level":"info","batch":"sync delegation","index":1,"total":2,"signature":"5Kd...","time":"2026-01-12T10:30:00Z","message":"Batch submitted"}

# Context loggers

Child loggers attach the pool, validator or batch being worked on:

	logger := log.WithPool(pool.String())
	logger.Debug().Uint64("epoch", epoch).Msg("Fetched pool")

	log.WithBatch(b.Label, b.Index, b.Total).Info().Msg("Simulated")

# Levels

Debug shows RPC round trips, simulation logs and compute unit estimates.
Info reports submitted batches. Warn is used for failures that do not stop
a run, such as a journal that cannot be written.
*/
package log
