// Package main provides the CLI for camlq.
package main

import (
	"fmt"
	"os"

	"github.com/ChrisPritchard/FluentSharepoint/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
