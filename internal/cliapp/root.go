// Package cliapp wires configuration, the distillation pipeline and its
// drivers into the distiller command tree.
package cliapp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set via ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type globalOptions struct {
	configPath string
	verbose    bool
}

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// usageError marks a command-line mistake, reported with exit status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs reports argument validation failures as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

// Run executes the command line and returns the process exit status.
func Run(args []string) int {
	return execute(args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func execute(args []string, std streams) int {
	root := newRootCmd(std)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(std.err, "error:", err)
		var ue usageError
		if errors.As(err, &ue) {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

func newRootCmd(std streams) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "distiller",
		Short: "Distill Java and Python sources down to their public structure",
		Long: `distiller reduces source files to signatures and declarations, removing
bodies, non-public members and the imports that only they used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(std.err, opts.verbose)
		},
	}
	root.SetIn(std.in)
	root.SetOut(std.out)
	root.SetErr(std.err)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is distiller.toml in the project root)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newDistillCmd(opts, std),
		newWatchCmd(opts, std),
		newMCPCmd(opts, std),
		newVersionCmd(std),
	)
	return root
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func newVersionCmd(std streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of distiller",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(std.out, "distiller %s\n", Version)
			fmt.Fprintf(std.out, "Git commit: %s\n", GitCommit)
			fmt.Fprintf(std.out, "Build date: %s\n", BuildDate)
		},
	}
}
