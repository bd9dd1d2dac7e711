// Package load drives the data-loading phase: it streams the dataset file into
// a backend target in batches and records the startup, loading and indexing
// times downstream tooling joins on.
package load

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/searchbench/searchbench/pkg/data"
	"github.com/searchbench/searchbench/pkg/query"
)

const (
	defaultBatchSize = 10000
)

var (
	printFn = fmt.Printf
	fatal   = log.Fatalf
)

type BenchmarkRunnerConfig struct {
	DBName          string        `yaml:"db-name" mapstructure:"db-name" json:"db-name"`
	Scale           string        `yaml:"scale" mapstructure:"scale" json:"scale"`
	BatchSize       uint          `yaml:"batch-size" mapstructure:"batch-size" json:"batch-size"`
	Limit           uint64        `yaml:"limit" mapstructure:"limit" json:"limit"`
	DoCreateDB      bool          `yaml:"do-create-db" mapstructure:"do-create-db" json:"do-create-db"`
	DoAbortOnExist  bool          `yaml:"do-abort-on-exist" mapstructure:"do-abort-on-exist" json:"do-abort-on-exist"`
	ReportingPeriod time.Duration `yaml:"reporting-period" mapstructure:"reporting-period" json:"reporting-period"`
	FileName        string        `yaml:"file" mapstructure:"file" json:"file"`
	ResultsDir      string        `yaml:"results-dir" mapstructure:"results-dir" json:"results-dir"`
}

func (c BenchmarkRunnerConfig) AddToFlagSet(fs *pflag.FlagSet) {
	fs.String("db-name", "benchmark_db", "Name of database (or index) to load into")
	fs.String("scale", "small", "Scale label of the dataset (small, medium, large)")
	fs.Uint("batch-size", defaultBatchSize, "Number of documents to batch together in a single insert")
	fs.Uint64("limit", 0, "Number of documents to insert (0 = all of them).")
	fs.Bool("do-create-db", true, "Whether to drop and recreate the database before loading.")
	fs.Bool("do-abort-on-exist", false, "Whether to abort if a database with the given name already exists.")
	fs.Duration("reporting-period", 10*time.Second, "Period to report load stats")
	fs.String("file", "", "File name to read documents from")
	fs.String("results-dir", "", "Write startup/loading/indexing time records to this directory, empty = don't persist")
}

// Processor writes one batch of documents to the backend.
type Processor interface {
	ProcessBatch(docs []data.Document) error
}

// Target is one backend's loading side. Setup blocks until the backend is
// ready and recreates the store; Finalize builds the search index (or
// refreshes it) after all documents are in.
type Target interface {
	Name() string
	Setup(cfg BenchmarkRunnerConfig) (startup time.Duration, err error)
	Processor() Processor
	Finalize() (indexing time.Duration, err error)
	Count() (int64, error)
	Close() error
}

// Loader owns one loading run.
type Loader struct {
	BenchmarkRunnerConfig
	docCount uint64
}

func GetBenchmarkRunner(c BenchmarkRunnerConfig) *Loader {
	loader := &Loader{BenchmarkRunnerConfig: c}
	if loader.BatchSize == 0 {
		loader.BatchSize = defaultBatchSize
	}
	return loader
}

// RunBenchmark executes setup, loading and finalization against the target and
// persists the three scalar measurements when a results directory is set.
func (l *Loader) RunBenchmark(t Target) error {
	startup, err := t.Setup(l.BenchmarkRunnerConfig)
	if err != nil {
		return errors.Wrapf(err, "could not set up %s", t.Name())
	}
	defer t.Close()
	printFn("%s ready after %fsec\n", t.Name(), startup.Seconds())

	stopReport := make(chan struct{})
	if l.ReportingPeriod > 0 {
		go l.report(stopReport)
	}

	loadStart := time.Now()
	n, err := l.loadFile(t.Processor())
	close(stopReport)
	if err != nil {
		return errors.Wrap(err, "could not load documents")
	}
	loadTook := time.Since(loadStart)

	indexTook, err := t.Finalize()
	if err != nil {
		return errors.Wrapf(err, "could not finalize %s", t.Name())
	}

	count, err := t.Count()
	if err != nil {
		return errors.Wrapf(err, "could not count documents in %s", t.Name())
	}
	printFn("loaded %d documents in %fsec (indexing %fsec), %d in store\n",
		n, loadTook.Seconds(), indexTook.Seconds(), count)

	if len(l.ResultsDir) > 0 {
		if err := l.writeScalars(t.Name(), startup, loadTook, indexTook); err != nil {
			return errors.Wrap(err, "could not persist load records")
		}
	}
	return nil
}

func (l *Loader) loadFile(p Processor) (uint64, error) {
	var r io.Reader = os.Stdin
	if len(l.FileName) > 0 {
		file, err := os.Open(l.FileName)
		if err != nil {
			return 0, err
		}
		defer file.Close()
		r = file
	}

	scanner := data.NewDocumentScanner(r)
	batch := make([]data.Document, 0, l.BatchSize)
	n := uint64(0)
	for {
		if l.Limit > 0 && n >= l.Limit {
			break
		}
		doc, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed line was consumed and can be skipped; a scanner
			// error is permanent and retrying it would loop forever.
			var parseErr *data.ParseError
			if !errors.As(err, &parseErr) {
				return n, errors.Wrap(err, "could not read dataset")
			}
			log.Printf("skipping unparsable document line: %v", err)
			continue
		}
		batch = append(batch, *doc)
		n++
		atomic.StoreUint64(&l.docCount, n)
		if uint(len(batch)) >= l.BatchSize {
			if err := p.ProcessBatch(batch); err != nil {
				return n, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := p.ProcessBatch(batch); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (l *Loader) report(stop <-chan struct{}) {
	ticker := time.NewTicker(l.ReportingPeriod)
	defer ticker.Stop()
	start := time.Now()
	prev := uint64(0)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n := atomic.LoadUint64(&l.docCount)
			rate := float64(n-prev) / l.ReportingPeriod.Seconds()
			printFn("%d documents read (%0.2f docs/sec, %fsec elapsed)\n",
				n, rate, time.Since(start).Seconds())
			prev = n
		}
	}
}

func (l *Loader) writeScalars(backend string, startup, load, index time.Duration) error {
	w, err := query.NewResultWriter(l.ResultsDir)
	if err != nil {
		return err
	}
	if _, err := w.WriteScalar(l.Scale, backend, "startup_time", "Startup time", startup.Seconds()); err != nil {
		return err
	}
	if _, err := w.WriteScalar(l.Scale, backend, "data_loading_time", "Data loading time", load.Seconds()); err != nil {
		return err
	}
	_, err = w.WriteScalar(l.Scale, backend, "index_creation_time", "Index creation time", index.Seconds())
	return err
}
