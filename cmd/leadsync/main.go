// Package main provides the leadsync CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leadsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
