// Package utils holds the config-file plumbing and small helpers shared by
// the searchbench binaries.
package utils

import (
	"github.com/blagojts/viper"
	"github.com/spf13/pflag"
)

// SetupConfigFile merges an optional ./config.yaml into the already-parsed
// command line flags. A missing config file is fine; flags and defaults then
// stand alone.
func SetupConfigFile() error {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")

	viper.BindPFlags(pflag.CommandLine)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

// IsIn reports whether s is one of the allowed choices.
func IsIn(s string, choices []string) bool {
	for _, x := range choices {
		if s == x {
			return true
		}
	}
	return false
}
