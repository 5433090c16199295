package journal

import (
	"time"
)

// Status of a run or of one batch
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusDumped    Status = "dumped"
	StatusSimulated Status = "simulated"
)

// Run is one invocation of a state-changing command
type Run struct {
	ID         string        `json:"id"`
	Seq        uint64        `json:"seq"`
	Command    string        `json:"command"`
	Pool       string        `json:"pool"`
	Mode       string        `json:"mode"`
	Status     Status        `json:"status"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Batches    []BatchRecord `json:"batches,omitempty"`
}

// BatchRecord is the outcome of one batch of a run
type BatchRecord struct {
	Index      int       `json:"index"`
	Total      int       `json:"total"`
	Label      string    `json:"label"`
	Kind       string    `json:"kind"`
	Operations []string  `json:"operations"`
	Status     Status    `json:"status"`
	Signature  string    `json:"signature,omitempty"`
	Message    string    `json:"message,omitempty"` // base64, dump mode only
	UnitLimit  uint32    `json:"unit_limit,omitempty"`
	UnitPrice  uint64    `json:"unit_price,omitempty"`
	Error      string    `json:"error,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store records what spoolctl submitted. It is an audit trail only:
// reconciliation never reads it.
type Store interface {
	StartRun(command, pool, mode string) (*Run, error)
	RecordBatch(runID string, rec BatchRecord) error
	FinishRun(runID string, err error) error
	GetRun(id string) (*Run, error)
	ListRuns() ([]*Run, error)

	Close() error
}
