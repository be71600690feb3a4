// Package main is the entry point for sellsy-bridge CLI.
package main

import (
	"os"

	"github.com/lutece-labs/sellsy-bridge/cmd/sellsy-bridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
