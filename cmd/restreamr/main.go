// Package main is the entry point for the restreamr application.
package main

import (
	"os"

	"github.com/jmylchreest/restreamr/cmd/restreamr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
