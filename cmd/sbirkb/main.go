// Package main provides the entry point for the sbirkb CLI.
package main

import (
	"os"

	"github.com/backtrue/sbirkb/cmd/sbirkb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
