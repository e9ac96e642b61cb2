// Package main is the entry point for the platemap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/platemap-hts/platemap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "platemap: %v\n", err)
		os.Exit(1)
	}
}
