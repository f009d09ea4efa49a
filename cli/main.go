package main

import (
	"os"

	"github.com/telhawk-systems/telhawk-kpi/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
