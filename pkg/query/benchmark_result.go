package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"
)

const BenchmarkTestResultVersion = "0.2"

// TypeResult is the persisted form of one query type's Aggregate.
type TypeResult struct {
	QueryTypeID int    `json:"QueryTypeID"`
	QueryType   string `json:"QueryType"`

	SuccessCount uint64 `json:"SuccessCount"`
	ErrorCount   uint64 `json:"ErrorCount"`
	TimeoutCount uint64 `json:"TimeoutCount"`

	// AvgLatencySeconds is meaningful only when AvgLatencyValid is set; a run
	// with no successes has no defined average.
	AvgLatencySeconds float64 `json:"AvgLatencySeconds"`
	AvgLatencyValid   bool    `json:"AvgLatencyValid"`

	TotalTimeSeconds float64 `json:"TotalTimeSeconds"`
	WallTimeSeconds  float64 `json:"WallTimeSeconds"`

	// TPS is TPSUndefined (-1) for a degenerate zero-duration run.
	TPS float64 `json:"TPS"`

	Partial bool `json:"Partial"`

	LatencyQuantilesMillis map[string]float64 `json:"LatencyQuantilesMillis"`
}

// BenchmarkResult is the one structured record produced per
// (scale, workers, transactions, backend) run.
type BenchmarkResult struct {
	ResultFormatVersion string `json:"ResultFormatVersion"`

	Key          string                `json:"Key"`
	RunnerConfig BenchmarkRunnerConfig `json:"RunnerConfig"`

	StartTime      int64 `json:"StartTime"`
	EndTime        int64 `json:"EndTime"`
	DurationMillis int64 `json:"DurationMillis"`

	Queries []TypeResult `json:"Queries"`
}

// ResultKey builds the stable key downstream reporting joins on.
func ResultKey(scale, backend string, workers uint, transactions uint64) string {
	return fmt.Sprintf("%s_%s_c%d_t%d", scale, backend, workers, transactions)
}

// NewBenchmarkResult freezes the run's aggregates into the persisted record.
func NewBenchmarkResult(config BenchmarkRunnerConfig, start, end time.Time, aggs []*Aggregate) *BenchmarkResult {
	res := &BenchmarkResult{
		ResultFormatVersion: BenchmarkTestResultVersion,
		Key:                 ResultKey(config.Scale, config.Backend, config.Workers, config.Transactions),
		RunnerConfig:        config,
		StartTime:           start.UTC().UnixNano() / 1e6,
		EndTime:             end.UTC().UnixNano() / 1e6,
		DurationMillis:      end.Sub(start).Milliseconds(),
	}
	for _, agg := range aggs {
		tr := TypeResult{
			QueryTypeID:            agg.QueryTypeID,
			QueryType:              agg.QueryType,
			SuccessCount:           agg.SuccessCount,
			ErrorCount:             agg.ErrorCount,
			TimeoutCount:           agg.TimeoutCount,
			TotalTimeSeconds:       agg.TotalTime.Seconds(),
			WallTimeSeconds:        agg.WallTime.Seconds(),
			TPS:                    agg.TPS(),
			Partial:                agg.Partial,
			LatencyQuantilesMillis: agg.LatencyQuantiles(),
		}
		if d, ok := agg.AvgLatency(); ok {
			tr.AvgLatencySeconds = d.Seconds()
			tr.AvgLatencyValid = true
		}
		res.Queries = append(res.Queries, tr)
	}
	return res
}

// ResultWriter persists run records, resource series and scalar measurements
// under one directory, named by the run key so downstream tooling can join
// them.
type ResultWriter struct {
	Dir string
}

func NewResultWriter(dir string) (*ResultWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &ResultWriter{Dir: dir}, nil
}

// WriteRun persists the benchmark record as <key>_results.json.
func (w *ResultWriter) WriteRun(res *BenchmarkResult) (string, error) {
	file, err := json.MarshalIndent(res, "", " ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, res.Key+"_results.json")
	return path, ioutil.WriteFile(path, file, 0644)
}

// WriteSeries persists an arbitrary JSON-marshalable series (resource usage)
// as {scale}_{backend}_{name}.json.
func (w *ResultWriter) WriteSeries(scale, backend, name string, series interface{}) (string, error) {
	file, err := json.MarshalIndent(series, "", " ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, fmt.Sprintf("%s_%s_%s.json", scale, backend, name))
	return path, ioutil.WriteFile(path, file, 0644)
}

// WriteScalar persists one labeled duration as {scale}_{backend}_{name}.txt in
// the line format the plotting tooling parses.
func (w *ResultWriter) WriteScalar(scale, backend, name, label string, seconds float64) (string, error) {
	path := filepath.Join(w.Dir, fmt.Sprintf("%s_%s_%s.txt", scale, backend, name))
	line := fmt.Sprintf("%s: %.6fs\n", label, seconds)
	return path, ioutil.WriteFile(path, []byte(line), 0644)
}

// WriteQueryTime persists one query type's average latency and wall time as
// {scale}_{backend}_query{N}_time.txt. The average line is omitted when no
// query succeeded.
func (w *ResultWriter) WriteQueryTime(scale, backend string, agg *Aggregate) (string, error) {
	var buf bytes.Buffer
	if d, ok := agg.AvgLatency(); ok {
		fmt.Fprintf(&buf, "Average Latency for Query %d: %.6fs\n", agg.QueryTypeID, d.Seconds())
	}
	fmt.Fprintf(&buf, "Wall time for Query %d: %.6fs\n", agg.QueryTypeID, agg.WallTime.Seconds())
	path := filepath.Join(w.Dir, fmt.Sprintf("%s_%s_query%d_time.txt", scale, backend, agg.QueryTypeID))
	return path, ioutil.WriteFile(path, buf.Bytes(), 0644)
}
