package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/batemanhorn/internal/config"
	"github.com/rewired-gh/batemanhorn/internal/logger"
	"github.com/rewired-gh/batemanhorn/internal/models"
	"github.com/rewired-gh/batemanhorn/internal/pipeline"
)

// Exit codes.
const (
	exitSuccess     = 0
	exitComputation = 1 // a stage reported a computational error
	exitUsage       = 2 // bad flags or configuration
	exitInterrupted = 130
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configPath string
	dataDir    string
	noWrite    bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags  rootFlags
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	pipe   *pipeline.Pipeline
}

// usageError marks failures that happen before any stage runs.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "batemanhorn",
		Short: "Verify the Bateman–Horn constant of n^47 − (n−1)^47",
		Long: `batemanhorn computes the Bateman–Horn constant C_Q of
Q(n) = n^47 − (n−1)^47 as a truncated Euler product, proves the shielding
of primes below 283 by residue scans, and compares the predicted count
(C_Q/46)·Li(x) of prime values Q(n), n ≤ x, with a brute-force count.

Without a subcommand all three stages run in order.`,
		Args: cobra.NoArgs,
		// Do not print usage on errors returned by stages.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.pipe.Run(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configPath, "config", "", "config file (default: "+config.DefaultPath+" if present)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "directory for CSV output (overrides output.data_dir)")
	root.PersistentFlags().BoolVar(&a.flags.noWrite, "no-write", false, "print results without writing CSV files")

	root.AddCommand(newShieldingCmd(a))
	root.AddCommand(newConstantCmd(a))
	root.AddCommand(newPredictionCmd(a))
	root.AddCommand(newReplayCmd(a))

	return root
}

// setup loads and validates configuration, initializes logging and builds
// the pipeline.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(a.flags.configPath)
	} else {
		cfg, err = config.LoadOptional(config.DefaultPath)
	}
	if err != nil {
		return &usageError{err}
	}

	if a.flags.dataDir != "" {
		cfg.Output.DataDir = a.flags.dataDir
	}
	if a.flags.noWrite {
		cfg.Output.Write = false
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{fmt.Errorf("invalid configuration: %w", err)}
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, a.stderr)
	a.cfg = cfg
	a.pipe = pipeline.New(cfg, a.stdout)
	logger.Info("starting %s, run %s, data dir %s", cmd.Name(), a.pipe.RunID(), cfg.Output.DataDir)
	logger.Debug("prime_limit=%d prediction.limit=%d scan_bound=%d write=%t",
		cfg.Constant.PrimeLimit, cfg.Prediction.Limit, cfg.Shielding.ScanBound, cfg.Output.Write)
	return nil
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string) int {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	defer logger.Sync()
	return a.exitCode(err)
}

// exitCode prints a diagnostic for err and maps it to an exit code.
func (a *app) exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}

	var me *models.Error
	var ue *usageError
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(a.stderr, "batemanhorn: interrupted")
		logger.Warn("run interrupted: %v", err)
		return exitInterrupted
	case errors.As(err, &me):
		fmt.Fprintf(a.stderr, "batemanhorn: %v\n", err)
		if me.Subject != "" {
			fmt.Fprintf(a.stderr, "  stage=%s %s=%d", me.Stage, me.Subject, me.At)
			if me.Value != "" {
				fmt.Fprintf(a.stderr, " measured=%s", me.Value)
			}
			fmt.Fprintln(a.stderr)
		}
		logger.Error("run failed: %v", err)
		return exitComputation
	case errors.As(err, &ue):
		fmt.Fprintf(a.stderr, "batemanhorn: %v\n", err)
		return exitUsage
	default:
		// Flag parsing and other cobra errors land here too.
		fmt.Fprintf(a.stderr, "batemanhorn: %v\n", err)
		return exitUsage
	}
}
