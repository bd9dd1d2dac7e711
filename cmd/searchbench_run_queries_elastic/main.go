// searchbench_run_queries_elastic speed tests Elasticsearch full-text search.
//
// It renders the configured query workload and makes concurrent requests to
// the provided Elasticsearch endpoint over HTTP.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/blagojts/viper"
	"github.com/spf13/pflag"

	"github.com/searchbench/searchbench/internal/utils"
	"github.com/searchbench/searchbench/pkg/query"
	"github.com/searchbench/searchbench/pkg/sampler"
	"github.com/searchbench/searchbench/pkg/targets/elastic"
	"github.com/searchbench/searchbench/pkg/targets/paradedb"
)

var (
	esHost       string
	indexName    string
	queryTimeout time.Duration
)

var (
	runner *query.BenchmarkRunner
	config query.BenchmarkRunnerConfig
)

func init() {
	config.AddToFlagSet(pflag.CommandLine)

	pflag.String("url", "localhost:9200", "Elasticsearch host:port to connect to")
	pflag.String("index-name", "documents", "Name of index to use for queries")
	pflag.Duration("query-timeout", 10*time.Second, "Per-request timeout")
	addWorkloadFlags(pflag.CommandLine)

	pflag.Parse()

	err := utils.SetupConfigFile()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("unable to decode config: %s", err))
	}
	if !utils.IsIn(config.Scale, query.ScaleChoices) {
		panic(fmt.Errorf("invalid scale %s, must be one of %v", config.Scale, query.ScaleChoices))
	}

	esHost = viper.GetString("url")
	indexName = viper.GetString("index-name")
	queryTimeout = viper.GetDuration("query-timeout")

	config.Backend = elastic.TargetName
	runner = query.NewBenchmarkRunner(config)
}

func main() {
	types := query.DefaultTypes()
	applyListOverrides(types)
	workload, err := query.NewWorkload(types, elastic.Render)
	if err != nil {
		log.Fatal(err)
	}
	printParityReport()

	resources, err := sampler.New(int32(os.Getpid()), sampler.DefaultInterval)
	if err != nil {
		log.Fatal(err)
	}
	resources.Start()

	start := time.Now()
	aggs, runErr := runner.Run(workload, func(workerNum int) (query.Client, error) {
		return elastic.NewClient(esHost, indexName, queryTimeout), nil
	})
	end := time.Now()
	series := resources.Stop()
	if runErr != nil {
		log.Fatal(runErr)
	}

	if len(config.ResultsDir) > 0 {
		saveResults(start, end, aggs, series)
	}
}

func saveResults(start, end time.Time, aggs []*query.Aggregate, series sampler.Series) {
	w, err := query.NewResultWriter(config.ResultsDir)
	if err != nil {
		log.Fatal(err)
	}
	res := query.NewBenchmarkResult(config, start, end, aggs)
	path, err := w.WriteRun(res)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saving results json file to %s\n", path)
	for _, agg := range aggs {
		if _, err := w.WriteQueryTime(config.Scale, config.Backend, agg); err != nil {
			log.Fatal(err)
		}
	}
	if _, err := w.WriteSeries(config.Scale, config.Backend, "resource_usage", series); err != nil {
		log.Fatal(err)
	}
}

func printParityReport() {
	report := query.ParityReport(
		paradedb.TargetName, paradedb.Traits(),
		elastic.TargetName, elastic.Traits())
	for _, line := range report {
		fmt.Fprintf(os.Stderr, "template parity: %s\n", line)
	}
}

func addWorkloadFlags(fs *pflag.FlagSet) {
	fs.StringSlice("terms", nil, "Override the term list for the simple and complex queries")
	fs.StringSlice("phrases", nil, "Override the phrase list for the phrase query")
	fs.StringSlice("secondary-terms", nil, "Override the second term list for the complex query")
}

func applyListOverrides(types []*query.Type) {
	terms := viper.GetStringSlice("terms")
	phrases := viper.GetStringSlice("phrases")
	secondary := viper.GetStringSlice("secondary-terms")
	for _, t := range types {
		switch t.ID {
		case 1:
			if len(terms) > 0 {
				t.Lists[0] = terms
			}
		case 2:
			if len(phrases) > 0 {
				t.Lists[0] = phrases
			}
		case 3:
			if len(terms) > 0 {
				t.Lists[0] = terms
			}
			if len(secondary) > 0 {
				t.Lists[1] = secondary
			}
		}
	}
}
