package query

import (
	"time"
)

// TPSUndefined is reported when a run's wall time is zero and throughput has
// no defined value.
const TPSUndefined = float64(-1)

// Aggregate is the per-query-type reduction over all worker results of one
// run. It is computed once, after every worker has joined, and never mutated.
type Aggregate struct {
	QueryTypeID int
	QueryType   string

	// Transactions is the configured iteration count, not the completed one.
	Transactions uint64
	Workers      uint

	SuccessCount uint64
	ErrorCount   uint64
	TimeoutCount uint64

	// TotalTime sums the durations of successful queries across all workers.
	// Under concurrency it can exceed WallTime.
	TotalTime time.Duration

	// WallTime is the elapsed time from dispatch to the last worker's
	// completion (or the deadline).
	WallTime time.Duration

	// Partial is set when any outcome timed out or any worker died on a
	// connectivity failure: the aggregate reflects exactly what was measured,
	// not the full configured workload.
	Partial bool

	latencies *statGroup
}

// reduce folds the collected worker results for one query type. Pure: it reads
// the results only after their owning workers have completed.
func reduce(t *Type, results []*WorkerResult, wallTime time.Duration, transactions uint64, workers uint) *Aggregate {
	agg := &Aggregate{
		QueryTypeID:  t.ID,
		QueryType:    t.Name,
		Transactions: transactions,
		Workers:      workers,
		WallTime:     wallTime,
		latencies:    newStatGroup(),
	}
	for _, r := range results {
		agg.SuccessCount += r.Successes
		agg.ErrorCount += r.Errors
		agg.TimeoutCount += r.Timeouts
		if r.Fatal {
			agg.Partial = true
		}
		for _, o := range r.Outcomes {
			if o.Kind != Succeeded {
				continue
			}
			agg.TotalTime += o.Duration
			agg.latencies.push(float64(o.Duration.Nanoseconds()) / 1e6)
		}
	}
	if agg.TimeoutCount > 0 {
		agg.Partial = true
	}
	return agg
}

// AvgLatency returns the mean latency of successful queries. The second return
// is false when there were no successes and the average is undefined.
func (a *Aggregate) AvgLatency() (time.Duration, bool) {
	if a.SuccessCount == 0 {
		return 0, false
	}
	return a.TotalTime / time.Duration(a.SuccessCount), true
}

// TPS returns configured transactions divided by wall time, or TPSUndefined
// for a degenerate zero-duration run.
func (a *Aggregate) TPS() float64 {
	if a.WallTime <= 0 {
		return TPSUndefined
	}
	return float64(a.Transactions) / a.WallTime.Seconds()
}

// LatencyQuantiles exposes the HDR histogram of successful-query latencies in
// milliseconds, keyed q0/q50/q95/q99/q999/q100.
func (a *Aggregate) LatencyQuantiles() map[string]float64 {
	return a.latencies.quantileMap()
}
