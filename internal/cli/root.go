// Package cli wires pecover's hide/unhide pipeline to a Cobra command-line
// interface: argument parsing, passphrase acquisition, and human-readable
// error reporting are all handled here, leaving internal/orchestrator free
// of any CLI concern.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pecover/internal/log"
)

// Version is set from the value cmd/pecover's main.go passes to Execute.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pecover",
	Short: "Hide files inside PE cover executables, and recover them",
	Long: `pecover hides one or more input files inside one or more Windows PE
cover executables. Each cover stays a loadable PE file; the hidden payload
is appended past the image's declared end, together with a small trailer
that lets pecover locate and reassemble it later.`,
	Version: Version,
}

var logFile string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append log output (Info level, or Debug with --verbose) to this file instead of stderr")
}

// Execute runs the CLI, returning the process exit code.
func Execute(version string) int {
	Version = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pecover: %v\n", err)
		return 1
	}
	return 0
}

func verbosef(quiet bool, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// configureLogging wires internal/log's package-level logger to stderr so
// the orchestrator's phase-transition logging (Info level) is visible by
// default. --quiet leaves the no-op logger in place; --verbose drops the
// level to Debug. --log-file redirects whichever level was selected to a
// file instead of stderr, so a quiet run can still be audited after the
// fact without cluttering the terminal.
func configureLogging(quiet, verbose bool) {
	level := log.LevelInfo
	if verbose {
		level = log.LevelDebug
	}

	if logFile != "" {
		if err := log.EnableFileLogging(logFile, level); err != nil {
			fmt.Fprintf(os.Stderr, "pecover: --log-file %s: %v\n", logFile, err)
		} else {
			return
		}
	}

	switch {
	case quiet:
		log.SetLogger(nil)
	case verbose:
		log.EnableDebugLogging()
	default:
		log.SetLogger(log.NewSimpleLogger(os.Stderr, log.LevelInfo))
	}
}
