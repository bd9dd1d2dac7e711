// searchbench_run_queries_paradedb speed tests ParadeDB full-text search.
//
// It renders the configured query workload and makes concurrent requests to
// the provided PostgreSQL/ParadeDB endpoint. This program has no knowledge of
// the internals of the endpoint.
package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
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
	postgresConnect  string
	host             string
	user             string
	pass             string
	port             string
	dbName           string
	useExplainTiming bool
	forceTextFormat  bool
)

var (
	runner *query.BenchmarkRunner
	config query.BenchmarkRunnerConfig
	driver string
)

func init() {
	config.AddToFlagSet(pflag.CommandLine)

	pflag.String("postgres", "sslmode=disable",
		"String of additional PostgreSQL connection parameters, e.g., 'sslmode=disable'. Parameters for host and database will be ignored.")
	pflag.String("host", "localhost", "PostgreSQL host")
	pflag.String("user", "benchmark_user", "User to connect to PostgreSQL as")
	pflag.String("pass", "", "Password for the user connecting to PostgreSQL (leave blank if not password protected)")
	pflag.String("port", "5432", "Which port to connect to on the database host")
	pflag.String("db-name", "benchmark_db", "Name of database to use for queries")
	pflag.Bool("use-explain-timing", false, "Use the backend-reported execution time from EXPLAIN ANALYZE instead of wall clock")
	pflag.Bool("force-text-format", false, "Send/receive data in text format")
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

	postgresConnect = viper.GetString("postgres")
	host = viper.GetString("host")
	user = viper.GetString("user")
	pass = viper.GetString("pass")
	port = viper.GetString("port")
	dbName = viper.GetString("db-name")
	useExplainTiming = viper.GetBool("use-explain-timing")
	forceTextFormat = viper.GetBool("force-text-format")

	if forceTextFormat {
		driver = paradedb.PqDriver
	} else {
		driver = paradedb.PgxDriver
	}

	config.Backend = paradedb.TargetName
	runner = query.NewBenchmarkRunner(config)
}

func main() {
	types := query.DefaultTypes()
	applyListOverrides(types)
	workload, err := query.NewWorkload(types, paradedb.Render)
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
		return paradedb.NewClient(driver, getConnectString(), useExplainTiming)
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

func getConnectString() string {
	re := regexp.MustCompile(`(host|dbname|user)=\S*\b`)
	connectString := strings.TrimSpace(re.ReplaceAllString(postgresConnect, ""))
	connectString = fmt.Sprintf("host=%s dbname=%s user=%s %s", host, dbName, user, connectString)
	if len(port) > 0 {
		connectString = fmt.Sprintf("%s port=%s", connectString, port)
	}
	if len(pass) > 0 {
		connectString = fmt.Sprintf("%s password=%s", connectString, pass)
	}
	return strings.TrimSpace(connectString)
}
