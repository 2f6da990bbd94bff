// Package main provides the CLI for the evaldash evaluation dashboard.
package main

import (
	"os"

	"github.com/leapstack-labs/evaldash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
