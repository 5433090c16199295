package reconciler

import (
	"fmt"
	"strings"

	"github.com/cuemby/spoolctl/pkg/types"
)

// MaxValidatorsPerUpdate is how many validator list entries one
// UpdateValidatorListBalance instruction can refresh
const MaxValidatorsPerUpdate = 11

// UpdateMode selects how much of the pool the update crank refreshes
type UpdateMode int

const (
	// UpdateIfNeeded refreshes only when the pool is behind the current epoch
	UpdateIfNeeded UpdateMode = iota
	// UpdateForcePool refreshes stale entries and the pool even when the
	// pool itself is up to date
	UpdateForcePool
	// UpdateForceAll refreshes every entry and the pool
	UpdateForceAll
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateForcePool:
		return "force-pool"
	case UpdateForceAll:
		return "force-all"
	default:
		return "if-needed"
	}
}

// ParseUpdateMode parses an update mode name
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch strings.ToLower(s) {
	case "", "if-needed":
		return UpdateIfNeeded, nil
	case "force-pool":
		return UpdateForcePool, nil
	case "force-all":
		return UpdateForceAll, nil
	default:
		return UpdateIfNeeded, fmt.Errorf("unknown update mode %q, expected if-needed, force-pool or force-all", s)
	}
}

// UpdateChunk is a slice of the validator list to refresh with one
// instruction
type UpdateChunk struct {
	StartIndex uint32
	Entries    []types.ValidatorStakeInfo
}

// UpdatePlan is the work of one update crank run
type UpdatePlan struct {
	Chunks     []UpdateChunk
	UpdatePool bool
}

// IsEmpty reports whether the pool is already up to date
func (p *UpdatePlan) IsEmpty() bool {
	return len(p.Chunks) == 0 && !p.UpdatePool
}

// PlanUpdate decides which validator list chunks need a balance update and
// whether the pool totals must be refreshed.
func PlanUpdate(pool *types.StakePool, list *types.ValidatorList, epoch uint64, mode UpdateMode) *UpdatePlan {
	plan := &UpdatePlan{}
	if mode == UpdateIfNeeded && pool.IsUpdated(epoch) {
		return plan
	}

	for start := 0; start < len(list.Validators); start += MaxValidatorsPerUpdate {
		end := start + MaxValidatorsPerUpdate
		if end > len(list.Validators) {
			end = len(list.Validators)
		}
		entries := list.Validators[start:end]
		if mode != UpdateForceAll && chunkUpdated(entries, epoch) {
			continue
		}
		plan.Chunks = append(plan.Chunks, UpdateChunk{StartIndex: uint32(start), Entries: entries})
	}
	plan.UpdatePool = true
	return plan
}

func chunkUpdated(entries []types.ValidatorStakeInfo, epoch uint64) bool {
	for _, e := range entries {
		if e.LastUpdateEpoch < epoch {
			return false
		}
	}
	return true
}
