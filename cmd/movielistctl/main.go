// Package main provides the entry point for movielistctl.
package main

import (
	"fmt"
	"os"

	"github.com/Clark-Hu/movielists/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
