package query

import (
	"math"
	"testing"
	"time"
)

func successResult(workerNum int, durations ...time.Duration) *WorkerResult {
	r := newWorkerResult(workerNum, len(durations))
	for _, d := range durations {
		r.append(SuccessOutcome(d))
	}
	return r
}

func TestReduceSumsAcrossWorkers(t *testing.T) {
	typ := &Type{ID: 1, Name: "term"}
	results := []*WorkerResult{
		successResult(0, 10*time.Millisecond, 20*time.Millisecond),
		successResult(1, 30*time.Millisecond),
	}
	results[1].append(ErrorOutcome(errTest))
	results[1].append(TimeoutOutcome())

	agg := reduce(typ, results, 50*time.Millisecond, 5, 2)

	if agg.SuccessCount != 3 || agg.ErrorCount != 1 || agg.TimeoutCount != 1 {
		t.Fatalf("got counts %d/%d/%d", agg.SuccessCount, agg.ErrorCount, agg.TimeoutCount)
	}
	if agg.TotalTime != 60*time.Millisecond {
		t.Errorf("errors and timeouts must contribute zero: got %v", agg.TotalTime)
	}
	if !agg.Partial {
		t.Error("timeouts must mark the run partial")
	}
}

func TestAvgLatencyTimesCountEqualsTotal(t *testing.T) {
	typ := &Type{ID: 1, Name: "term"}
	durations := []time.Duration{
		3*time.Millisecond + 137*time.Microsecond,
		11*time.Millisecond + 13*time.Microsecond,
		7 * time.Millisecond,
		19*time.Millisecond + 501*time.Microsecond,
		2 * time.Millisecond,
	}
	agg := reduce(typ, []*WorkerResult{successResult(0, durations...)}, 40*time.Millisecond, 5, 1)

	avg, ok := agg.AvgLatency()
	if !ok {
		t.Fatal("average latency should be defined")
	}
	got := avg.Seconds() * float64(agg.SuccessCount)
	want := agg.TotalTime.Seconds()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("avg*count = %f, total = %f", got, want)
	}
}

func TestAvgLatencyUndefinedWithoutSuccesses(t *testing.T) {
	typ := &Type{ID: 2, Name: "phrase"}
	r := newWorkerResult(0, 2)
	r.append(ErrorOutcome(errTest))
	r.append(ErrorOutcome(errTest))
	agg := reduce(typ, []*WorkerResult{r}, time.Second, 2, 1)

	if _, ok := agg.AvgLatency(); ok {
		t.Fatal("average latency must be reported as undefined, not zero")
	}
}

func TestTPS(t *testing.T) {
	typ := &Type{ID: 1, Name: "term"}
	agg := reduce(typ, nil, 2*time.Second, 10, 1)
	if got := agg.TPS(); got != 5.0 {
		t.Errorf("got tps %f, want 5", got)
	}

	degenerate := reduce(typ, nil, 0, 10, 1)
	if got := degenerate.TPS(); got != TPSUndefined {
		t.Errorf("zero wall time must report the sentinel, got %f", got)
	}
}

func TestTotalTimeCanExceedWallTime(t *testing.T) {
	typ := &Type{ID: 1, Name: "term"}
	results := []*WorkerResult{
		successResult(0, 80*time.Millisecond),
		successResult(1, 80*time.Millisecond),
	}
	agg := reduce(typ, results, 100*time.Millisecond, 2, 2)
	if agg.TotalTime <= agg.WallTime {
		t.Errorf("summed worker time %v should exceed wall time %v here", agg.TotalTime, agg.WallTime)
	}
}

var errTest = errTestType{}

type errTestType struct{}

func (errTestType) Error() string { return "backend rejected query" }
