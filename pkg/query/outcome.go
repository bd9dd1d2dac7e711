package query

import (
	"time"
)

// OutcomeKind classifies the result of one submitted query.
type OutcomeKind int

const (
	// Succeeded: the backend answered; Duration holds the measured latency.
	Succeeded OutcomeKind = iota
	// Errored: the backend rejected the query; the worker carries on.
	Errored
	// TimedOut: the run deadline expired before this iteration completed.
	TimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "success"
	case Errored:
		return "error"
	case TimedOut:
		return "timeout"
	}
	return "unknown"
}

// Outcome is the result of one query instance. Exactly one of the three kinds;
// Duration is meaningful only for Succeeded, Message only for Errored.
type Outcome struct {
	Kind     OutcomeKind
	Duration time.Duration
	Message  string
}

func SuccessOutcome(d time.Duration) Outcome {
	return Outcome{Kind: Succeeded, Duration: d}
}

func ErrorOutcome(err error) Outcome {
	return Outcome{Kind: Errored, Message: err.Error()}
}

func TimeoutOutcome() Outcome {
	return Outcome{Kind: TimedOut}
}

// WorkerResult collects the outcomes of one worker's partition. It is owned
// exclusively by the producing worker and handed to the aggregator only after
// the worker has completed, so it needs no locking.
type WorkerResult struct {
	WorkerNum int
	Outcomes  []Outcome

	Successes uint64
	Errors    uint64
	Timeouts  uint64

	// Fatal is set when a connectivity failure stopped the worker before it
	// finished its partition.
	Fatal bool
}

func newWorkerResult(workerNum, capacity int) *WorkerResult {
	return &WorkerResult{
		WorkerNum: workerNum,
		Outcomes:  make([]Outcome, 0, capacity),
	}
}

func (r *WorkerResult) append(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case Succeeded:
		r.Successes++
	case Errored:
		r.Errors++
	case TimedOut:
		r.Timeouts++
	}
}
