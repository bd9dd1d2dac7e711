package query

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"
)

const errNoWorkers = "must have at least one worker"

// ScaleChoices are the known dataset scale labels.
var ScaleChoices = []string{"small", "medium", "large"}

// BenchmarkRunnerConfig is the immutable configuration of one benchmark run.
// It is decoded from flags and the config file once and passed in at
// construction; the runner keeps no other process-wide state.
type BenchmarkRunnerConfig struct {
	Scale            string        `yaml:"scale" mapstructure:"scale" json:"scale"`
	Backend          string        `yaml:"backend" mapstructure:"backend" json:"backend"`
	Transactions     uint64        `yaml:"transactions" mapstructure:"transactions" json:"transactions"`
	Workers          uint          `yaml:"workers" mapstructure:"workers" json:"workers"`
	Deadline         time.Duration `yaml:"deadline" mapstructure:"deadline" json:"deadline"`
	LimitRPS         uint64        `yaml:"max-rps" mapstructure:"max-rps" json:"max-rps"`
	DoWarmup         bool          `yaml:"do-warmup" mapstructure:"do-warmup" json:"do-warmup"`
	Debug            int           `yaml:"debug" mapstructure:"debug" json:"debug"`
	HDRLatenciesFile string        `yaml:"hdr-latencies" mapstructure:"hdr-latencies" json:"hdr-latencies"`
	ResultsDir       string        `yaml:"results-dir" mapstructure:"results-dir" json:"results-dir"`
}

func (c BenchmarkRunnerConfig) AddToFlagSet(fs *pflag.FlagSet) {
	fs.String("scale", "small", "Scale label of the loaded dataset (small, medium, large)")
	fs.Uint64("transactions", 10, "Number of transactions to run per query type")
	fs.Uint("workers", 1, "Number of concurrent workers issuing queries")
	fs.Duration("deadline", 0, "Give up on a query type after this long, 0 = no deadline")
	fs.Uint64("max-rps", 0, "Limit the rate of queries per second, 0 = no limit")
	fs.Bool("do-warmup", false, "Run a reduced pass per query type before measuring")
	fs.Int("debug", 0, "Whether to print debug messages.")
	fs.String("hdr-latencies", "", "Write the High Dynamic Range (HDR) Histogram of Response Latencies to this file.")
	fs.String("results-dir", "", "Write result records to this directory, empty = don't persist")
}

// BenchmarkRunner drives a workload against one backend: it partitions the
// configured transactions across workers, runs each worker's sequential loop
// on its own dedicated Client, joins on completion, and reduces the worker
// results into one Aggregate per query type.
type BenchmarkRunner struct {
	BenchmarkRunnerConfig
}

func NewBenchmarkRunner(config BenchmarkRunnerConfig) *BenchmarkRunner {
	return &BenchmarkRunner{BenchmarkRunnerConfig: config}
}

// Run executes the full workload. Workers never share clients or mutable
// state; each returns its WorkerResult over a channel and the per-type join is
// a one-time barrier, so aggregation only ever sees completed results.
func (b *BenchmarkRunner) Run(w *Workload, newClient ClientFactory) ([]*Aggregate, error) {
	if b.Workers == 0 {
		return nil, fmt.Errorf(errNoWorkers)
	}

	if b.DoWarmup {
		warmupTxns := b.Transactions / 10
		if warmupTxns == 0 {
			warmupTxns = 1
		}
		fmt.Fprintf(os.Stderr, "warming up with %d transactions per query type\n", warmupTxns)
		for _, t := range w.Types() {
			b.runType(w, t, warmupTxns, newClient)
		}
	}

	aggs := make([]*Aggregate, 0, len(w.Types()))
	summary := make(map[string]*statGroup, len(w.Types()))
	for _, t := range w.Types() {
		fmt.Fprintf(os.Stderr, "Query %d: %s (%d iterations, %d workers)\n",
			t.ID, t.Name, b.Transactions, b.Workers)
		agg := b.runType(w, t, b.Transactions, newClient)
		b.printAggregate(agg)
		summary[t.Name] = agg.latencies
		aggs = append(aggs, agg)
	}

	err := writeStatGroupMap(os.Stdout, summary)
	if err != nil {
		log.Fatal(err)
	}

	if len(b.HDRLatenciesFile) > 0 {
		if err := b.saveHDRLatencies(aggs); err != nil {
			return nil, err
		}
	}
	return aggs, nil
}

// runType runs total transactions of one query type and blocks until every
// worker has completed or the deadline has expired. On expiry the workers
// cooperatively stop and record their remaining iterations as timeouts, so the
// join still observes every partition.
func (b *BenchmarkRunner) runType(w *Workload, t *Type, total uint64, newClient ClientFactory) *Aggregate {
	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if b.Deadline > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.Deadline)
	}
	defer cancel()

	rateLimiter := getRateLimiter(b.LimitRPS, b.Workers)

	parts := Partitions(int(total), int(b.Workers))
	ch := make(chan *WorkerResult, len(parts))
	dispatched := 0
	wallStart := time.Now()
	for _, p := range parts {
		if p.Size() == 0 {
			// Nothing to run; the partition joins trivially.
			continue
		}
		dispatched++
		go b.worker(ctx, w, t, p, newClient, rateLimiter, ch)
	}
	results := make([]*WorkerResult, 0, dispatched)
	for i := 0; i < dispatched; i++ {
		results = append(results, <-ch)
	}
	wallTime := time.Since(wallStart)

	return reduce(t, results, wallTime, total, b.Workers)
}

// worker executes one partition strictly sequentially against its own client.
// Per-query failures become outcomes and never unwind past this loop; a
// connectivity failure marks the rest of the partition as errors and stops
// only this worker.
func (b *BenchmarkRunner) worker(ctx context.Context, w *Workload, t *Type, p Partition, newClient ClientFactory, rateLimiter *rate.Limiter, out chan<- *WorkerResult) {
	res := newWorkerResult(p.WorkerNum, p.Size())
	defer func() {
		out <- res
	}()

	client, err := newClient(p.WorkerNum)
	if err != nil {
		b.failRemaining(res, p.Start, p.End, err)
		return
	}
	defer client.Close()

	for i := p.Start; i < p.End; i++ {
		select {
		case <-ctx.Done():
			b.timeoutRemaining(res, i, p.End)
			return
		default:
		}

		r := rateLimiter.Reserve()
		time.Sleep(r.Delay())

		inst := w.Instance(t, i)
		if b.Debug > 0 {
			fmt.Fprintf(os.Stderr, "worker %d: %s\n", p.WorkerNum, inst.Payload)
		}
		outcome, err := client.Submit(ctx, inst)
		if err != nil {
			if ctx.Err() != nil {
				// The deadline cut an in-flight query short.
				b.timeoutRemaining(res, i, p.End)
				return
			}
			b.failRemaining(res, i, p.End, err)
			return
		}
		res.append(outcome)
	}
}

func (b *BenchmarkRunner) failRemaining(res *WorkerResult, from, end int, err error) {
	res.Fatal = true
	if b.Debug > 0 {
		fmt.Fprintf(os.Stderr, "worker %d fatal: %v\n", res.WorkerNum, err)
	}
	for i := from; i < end; i++ {
		res.append(ErrorOutcome(err))
	}
}

func (b *BenchmarkRunner) timeoutRemaining(res *WorkerResult, from, end int) {
	for i := from; i < end; i++ {
		res.append(TimeoutOutcome())
	}
}

func (b *BenchmarkRunner) printAggregate(agg *Aggregate) {
	avg := "undefined"
	if d, ok := agg.AvgLatency(); ok {
		avg = fmt.Sprintf("%fsec", d.Seconds())
	}
	tps := "undefined"
	if v := agg.TPS(); v != TPSUndefined {
		tps = fmt.Sprintf("%0.2f", v)
	}
	_, err := fmt.Printf("Average Latency for Query %d: %s\nTotal time for Query %d: %fsec\nwall clock time: %fsec\nTPS for Query %d: %s\n",
		agg.QueryTypeID, avg,
		agg.QueryTypeID, agg.TotalTime.Seconds(),
		agg.WallTime.Seconds(),
		agg.QueryTypeID, tps)
	if err != nil {
		log.Fatal(err)
	}
	if agg.Partial {
		fmt.Printf("Query %d run is partial: %d errors, %d timeouts\n",
			agg.QueryTypeID, agg.ErrorCount, agg.TimeoutCount)
	}
}

func (b *BenchmarkRunner) saveHDRLatencies(aggs []*Aggregate) error {
	fmt.Printf("Saving High Dynamic Range (HDR) Histogram of Response Latencies to %s\n", b.HDRLatenciesFile)
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	for _, agg := range aggs {
		fmt.Fprintf(bw, "%s:\n", agg.QueryType)
		_, err := agg.latencies.latencyHDRHistogram.PercentilesPrint(bw, 10, 1000.0)
		if err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return ioutil.WriteFile(b.HDRLatenciesFile, buf.Bytes(), 0644)
}

func getRateLimiter(limitRPS uint64, workers uint) *rate.Limiter {
	var requestRate = rate.Inf
	var requestBurst = 0
	if limitRPS != 0 {
		requestRate = rate.Limit(limitRPS)
		requestBurst = int(workers)
	}
	return rate.NewLimiter(requestRate, requestBurst)
}
