// Package journal keeps a local record of what spoolctl submitted.
//
// Each state-changing command is a Run, keyed by a UUID, holding one
// BatchRecord per batch with its signature or error. Runs are stored as
// JSON in a bbolt file given with --journal and listed by spoolctl history.
// Reconciliation never reads the journal.
package journal
