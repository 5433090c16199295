package metrics

import (
	"github.com/cuemby/spoolctl/pkg/types"
)

// ObservePool sets the pool state gauges from a fetched snapshot
func ObservePool(pool *types.StakePool, list *types.ValidatorList, reserveLamports uint64) {
	PoolTotalLamports.Set(float64(pool.TotalLamports))
	PoolReserveLamports.Set(float64(reserveLamports))
	PoolLastUpdateEpoch.Set(float64(pool.LastUpdateEpoch))

	counts := make(map[types.StakeStatus]int)
	for _, v := range list.Validators {
		counts[v.Status]++
	}
	for s := types.StakeStatusActive; s <= types.StakeStatusDeactivatingAll; s++ {
		PoolValidators.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}
