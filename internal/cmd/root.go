// Package cmd implements forkfuzz's cobra command tree: a single root
// command since the tool performs one action (fuzz a target with a seed),
// not a multi-command CLI — the flag surface follows spec §6 exactly.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lz0104132490/forkfuzz/internal/fuzzconfig"
	"github.com/lz0104132490/forkfuzz/internal/logging"
	"github.com/lz0104132490/forkfuzz/internal/orchestrator"
	"github.com/lz0104132490/forkfuzz/internal/output"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var (
	binaryFlag  string
	seedFlag    string
	iterFlag    int
	timeoutFlag int
	jsonFlag    bool
	verboseFlag bool
	quietFlag   bool
)

// NewRootCmd builds the forkfuzz command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "forkfuzz",
		Short:         "Coverage-aware, format-aware forkserver fuzzer",
		Long:          "forkfuzz mutates a seed input against a target binary through a forkserver, archiving crashes and hangs.",
		Version:       fmt.Sprintf("forkfuzz v%s", Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verboseFlag && quietFlag {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			output.SetFlags(jsonFlag, quietFlag, verboseFlag)
			return nil
		},
		RunE: runFuzz,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	flags := rootCmd.Flags()
	flags.StringVarP(&binaryFlag, "binary", "b", "", "target binary to fuzz (required)")
	flags.StringVarP(&seedFlag, "input", "i", "", "seed input file (required)")
	flags.IntVarP(&iterFlag, "iterations", "n", 0, "maximum test cases to run (default 1000)")
	flags.IntVarP(&timeoutFlag, "timeout", "t", 0, "per-run wall-clock budget in seconds (default 60)")
	flags.BoolVarP(&jsonFlag, "json", "j", false, "output the final summary as JSON")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "extra detail to stderr")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")

	// An unknown flag prints usage to stderr and exits 1, like a missing
	// required flag in runFuzz.
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprint(os.Stderr, c.UsageString())
		return exitError{code: output.ExitArgumentOrInitError, err: err}
	})

	return rootCmd
}

func runFuzz(cmd *cobra.Command, args []string) error {
	cfg, err := fuzzconfig.Resolve(binaryFlag, seedFlag, iterFlag, timeoutFlag)
	if err != nil {
		fmt.Fprint(os.Stderr, cmd.UsageString())
		return exitError{code: output.ExitArgumentOrInitError, err: err}
	}

	log := logging.New(verboseFlag, quietFlag)
	if jsonFlag {
		log = logging.NewJSON(verboseFlag, quietFlag)
	}

	summary, err := orchestrator.Run(cfg, log)
	if err != nil {
		return exitError{code: output.ExitArgumentOrInitError, err: err}
	}

	return summary.Print(os.Stdout)
}

// exitError carries the process exit code a command failure should produce,
// read by main.go after Execute returns.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

// ExitCode extracts the exit code from an error returned by Execute, or
// ExitArgumentOrInitError for any other non-nil error.
func ExitCode(err error) int {
	if err == nil {
		return output.ExitSuccess
	}
	if ee, ok := err.(exitError); ok {
		return ee.code
	}
	return output.ExitArgumentOrInitError
}

// Execute runs the command tree and returns any error for main.go to
// translate into a process exit code.
func Execute() error {
	cmd := NewRootCmd()
	return cmd.Execute()
}
