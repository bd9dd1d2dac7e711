package main

import (
	"fmt"
	"io/ioutil"

	"github.com/blagojts/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/searchbench/searchbench/pkg/load"
	"github.com/searchbench/searchbench/pkg/targets/elastic"
	"github.com/searchbench/searchbench/pkg/targets/paradedb"
)

var cfgFile string

type cmdRunner func(*cobra.Command, []string)

func initLoadCMD() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:              "searchbench_load",
		Short:            "Load the document corpus into a specified target backend",
		PersistentPreRun: initViperConfig,
	}
	loadCmdFlagSet := loadCmdFlags()
	cmd.PersistentFlags().AddFlagSet(loadCmdFlagSet)
	err := viper.BindPFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err != nil {
		return nil, fmt.Errorf("could not bind flags to configuration: %v", err)
	}

	cmd.AddCommand(initParadeDBCmd(), initElasticCmd(), initConfigCmd())
	return cmd, nil
}

func initConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write an example config.yaml with the loader defaults",
		Run: func(cmd *cobra.Command, args []string) {
			example := load.BenchmarkRunnerConfig{
				DBName:    "benchmark_db",
				Scale:     "small",
				BatchSize: 10000,
			}
			out, err := yaml.Marshal(example)
			if err != nil {
				panic(fmt.Errorf("could not render example config: %v", err))
			}
			if err := ioutil.WriteFile("./config.yaml", out, 0644); err != nil {
				panic(fmt.Errorf("could not write ./config.yaml: %v", err))
			}
			fmt.Println("Wrote example config to ./config.yaml")
		},
	}
	return cmd
}

func loadCmdFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	load.BenchmarkRunnerConfig{}.AddToFlagSet(fs)
	return fs
}

func initParadeDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   paradedb.TargetName,
		Short: "Load documents into ParadeDB as a target backend",
		Run:   createRunLoad(newParadeDBTarget),
	}
	fs := cmd.PersistentFlags()
	fs.String("postgres", "sslmode=disable",
		"String of additional PostgreSQL connection parameters, e.g., 'sslmode=disable'. Parameters for host and database will be ignored.")
	fs.String("host", "localhost", "PostgreSQL host")
	fs.String("user", "benchmark_user", "User to connect to PostgreSQL as")
	fs.String("pass", "", "Password for the user connecting to PostgreSQL (leave blank if not password protected)")
	fs.String("port", "5432", "Which port to connect to on the database host")
	fs.Bool("force-text-format", false, "Send/receive data in text format")
	return cmd
}

func initElasticCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   elastic.TargetName,
		Short: "Load documents into Elasticsearch as a target backend",
		Run:   createRunLoad(newElasticTarget),
	}
	fs := cmd.PersistentFlags()
	fs.String("url", "localhost:9200", "Elasticsearch host:port to connect to")
	fs.String("index-name", "documents", "Name of index to load into")
	return cmd
}

func newParadeDBTarget(v *viper.Viper) load.Target {
	driver := paradedb.PgxDriver
	if v.GetBool("force-text-format") {
		driver = paradedb.PqDriver
	}
	connStr := fmt.Sprintf("host=%s user=%s %s", v.GetString("host"), v.GetString("user"), v.GetString("postgres"))
	if p := v.GetString("port"); len(p) > 0 {
		connStr = fmt.Sprintf("%s port=%s", connStr, p)
	}
	if p := v.GetString("pass"); len(p) > 0 {
		connStr = fmt.Sprintf("%s password=%s", connStr, p)
	}
	return paradedb.NewLoadTarget(driver, connStr)
}

func newElasticTarget(v *viper.Viper) load.Target {
	return elastic.NewLoadTarget(v.GetString("url"), v.GetString("index-name"))
}

func createRunLoad(newTarget func(*viper.Viper) load.Target) cmdRunner {
	return func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			panic(fmt.Errorf("could not bind target-specific flags: %v", err))
		}
		var config load.BenchmarkRunnerConfig
		if err := viper.Unmarshal(&config); err != nil {
			panic(fmt.Errorf("unable to decode config: %s", err))
		}
		target := newTarget(viper.GetViper())
		runner := load.GetBenchmarkRunner(config)
		if err := runner.RunBenchmark(target); err != nil {
			panic(err)
		}
	}
}

func initViperConfig(*cobra.Command, []string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %s", err))
		}
	}
}
