// Package main provides the entry point for the prophex-match CLI.
package main

import (
	"os"

	"github.com/prophyle/prophex-match/cmd/prophex-match/cmd"
	perrors "github.com/prophyle/prophex-match/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(perrors.ExitCode(err))
	}
}
