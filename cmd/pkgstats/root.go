// Package main provides the entry point for the pkgstats CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pkgstats/pkgstats/internal/fetch"
	"github.com/spf13/cobra"
)

// Exit codes. Fetch failures and cleanup failures get distinct codes so
// scripts can tell a mirror problem from a leftover temp file.
const (
	exitCodeOK      = 0
	exitCodeError   = 1
	exitCodeFetch   = 2
	exitCodeCleanup = 3
)

// NewRootCmd creates the root command for pkgstats.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkgstats",
		Short: "Debian package statistics from Contents indices",
		Long: `pkgstats downloads the compressed Contents index for a Debian architecture
from a package mirror and reports the packages associated with the most files.

Runs are recorded in a local history database, so past results can be listed
and compared without refetching the index.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with a code describing the
// failure class.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit code.
// Cleanup is checked first: a run that counted successfully but failed to
// remove its temp file must not be reported as a fetch failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitCodeOK
	case errors.Is(err, fetch.ErrCleanup):
		return exitCodeCleanup
	case errors.Is(err, fetch.ErrNotFound), errors.Is(err, fetch.ErrFetch):
		return exitCodeFetch
	default:
		return exitCodeError
	}
}
