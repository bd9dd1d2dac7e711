// searchbench_load loads the synthetic document corpus into a target backend
// and records the startup, data-loading and index-creation times.
package main

import (
	"log"
)

func main() {
	cmd, err := initLoadCMD()
	if err != nil {
		log.Fatal(err)
	}
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
