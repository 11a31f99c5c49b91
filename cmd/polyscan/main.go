// Package main provides the polyscan command.
package main

import (
	"os"

	"github.com/leapstack-labs/polyscan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
