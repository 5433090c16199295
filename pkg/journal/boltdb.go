package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/spoolctl/pkg/types"
)

var (
	// Bucket names
	bucketRuns = []byte("runs")
)

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// Open opens or creates the journal at path
func Open(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketRuns, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run
func (s *BoltStore) StartRun(command, pool, mode string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Command:   command,
		Pool:      pool,
		Mode:      mode,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		run.Seq = seq
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return b.Put([]byte(run.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// RecordBatch appends the outcome of a batch to a run
func (s *BoltStore) RecordBatch(runID string, rec BatchRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	return s.update(runID, func(run *Run) {
		run.Batches = append(run.Batches, rec)
	})
}

// FinishRun marks a run as done, failed when err is not nil. A run that
// only simulated or dumped its batches is recorded as such.
func (s *BoltStore) FinishRun(runID string, err error) error {
	return s.update(runID, func(run *Run) {
		run.FinishedAt = time.Now().UTC()
		run.Status = completedStatus(run.Mode)
		if err != nil {
			run.Status = StatusFailed
			run.Error = err.Error()
		}
	})
}

func completedStatus(mode string) Status {
	switch types.SendMode(mode) {
	case types.SendModeSimOnly:
		return StatusSimulated
	case types.SendModeDumpMsg:
		return StatusDumped
	default:
		return StatusSucceeded
	}
}

// GetRun returns one run
func (s *BoltStore) GetRun(id string) (*Run, error) {
	var run Run
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns every run, oldest first
func (s *BoltStore) ListRuns() ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Seq < runs[j].Seq
	})
	return runs, nil
}

func (s *BoltStore) update(runID string, fn func(*Run)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data := b.Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("run not found: %s", runID)
		}
		var run Run
		if err := json.Unmarshal(data, &run); err != nil {
			return err
		}
		fn(&run)
		data, err := json.Marshal(&run)
		if err != nil {
			return err
		}
		return b.Put([]byte(runID), data)
	})
}
