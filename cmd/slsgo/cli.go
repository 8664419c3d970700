package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qrioso-software/slsgo/internal/build"
	"github.com/qrioso-software/slsgo/internal/config"
	"github.com/qrioso-software/slsgo/internal/engine"
	"github.com/qrioso-software/slsgo/internal/logger"
	"github.com/qrioso-software/slsgo/internal/orchestrator"
	"github.com/qrioso-software/slsgo/internal/ui"
	"github.com/qrioso-software/slsgo/internal/watch"
)

type deps struct {
	Out       io.Writer
	Err       io.Writer
	Toolchain build.Toolchain
}

type globalOptions struct {
	cfgPath  string
	logLevel string
}

// run executes the CLI and returns the process exit code.
func run(args []string, d deps) int {
	root := newRootCmd(d)
	root.SetArgs(args)
	root.SetOut(d.Out)
	root.SetErr(d.Err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			ui.New(d.Err).Warn("%v", err)
		}
		return 1
	}
	return 0
}

// reportedError marks an error the user has already been shown.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

func newRootCmd(d deps) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "slsgo",
		Short:         "Compile Go functions of a serverless service into deployable binaries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "serverless.yml", "Path to the service definition")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "debug|info|warn|error")
	config.AddOverrideFlags(root.PersistentFlags())

	root.AddCommand(
		newBuildCmd(d, opts),
		newHookCmd(d, opts),
		newValidateCmd(d, opts),
		newWatchCmd(d, opts),
		newSynthCmd(d, opts),
		newDoctorCmd(d),
	)
	return root
}

// session is what every command needs after flags are parsed.
type session struct {
	svc     *config.Service
	orch    *orchestrator.Orchestrator
	console *ui.Console
	log     *zap.Logger
}

func openSession(cmd *cobra.Command, d deps, opts *globalOptions) (*session, error) {
	log := logger.New(d.Err, logger.ParseLevel(opts.logLevel))
	console := ui.New(d.Err)

	svc, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, err
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}

	orch := orchestrator.New(svc, d.Toolchain, console, log)
	orch.Overrides = []*config.Override{config.ViperOverride(config.NewViper(cmd.Flags()))}

	return &session{svc: svc, orch: orch, console: console, log: log}, nil
}

func writeService(svc *config.Service, output string, out io.Writer) error {
	switch output {
	case "":
		return nil
	case "-":
		b, err := svc.Marshal()
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	default:
		return svc.Save(output)
	}
}

// ===== slsgo build =====
func newBuildCmd(d deps, opts *globalOptions) *cobra.Command {
	var function, output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build all Go functions, or one with --function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, d, opts)
			if err != nil {
				return err
			}
			ctx := logger.NewContextWithLogger(cmd.Context(), s.log)
			if function != "" {
				err = s.orch.CompileFunction(ctx, function)
			} else {
				err = s.orch.CompileAll(ctx)
			}
			if err != nil {
				return reported(err)
			}
			return writeService(s.svc, output, d.Out)
		},
	}
	cmd.Flags().StringVarP(&function, "function", "f", "", "Build only this function")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the rewritten service definition here (- for stdout)")
	return cmd
}

// ===== slsgo hook =====
func newHookCmd(d deps, opts *globalOptions) *cobra.Command {
	var function, output string

	cmd := &cobra.Command{
		Use:   "hook EVENT",
		Short: "Run the build for a deployment lifecycle event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, d, opts)
			if err != nil {
				return err
			}
			ctx := logger.NewContextWithLogger(cmd.Context(), s.log)
			if _, ok := s.orch.Hooks()[args[0]]; !ok {
				return fmt.Errorf("unknown event %q, expected one of %v", args[0], s.orch.HookNames())
			}
			if err := s.orch.RunHook(ctx, args[0], function); err != nil {
				return reported(err)
			}
			return writeService(s.svc, output, d.Out)
		},
	}
	cmd.Flags().StringVarP(&function, "function", "f", "", "Function for single-function events")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the rewritten service definition here (- for stdout)")
	return cmd
}

// ===== slsgo validate =====
func newValidateCmd(d deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the service definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, d, opts)
			if err != nil {
				return err
			}
			s.console.Success(fmt.Sprintf("%s: %d functions OK", opts.cfgPath, len(s.svc.Functions)))
			return nil
		},
	}
}

// ===== slsgo watch =====
func newWatchCmd(d deps, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build all Go functions, then rebuild them as sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, d, opts)
			if err != nil {
				return err
			}
			ctx := logger.NewContextWithLogger(cmd.Context(), s.log)

			cfg := s.svc.BuildConfig(s.orch.Overrides...)
			w, err := watch.New(s.svc, cfg, func(ctx context.Context, name string) error {
				// Rebuild from a fresh read; the registry in s has
				// already had its handlers rewritten.
				fresh, err := openSession(cmd, d, opts)
				if err != nil {
					return err
				}
				return fresh.orch.CompileFunction(ctx, name)
			}, s.log)
			if err != nil {
				return err
			}

			if err := s.orch.CompileAll(ctx); err != nil {
				return reported(err)
			}
			return w.Run(ctx)
		},
	}
}

// ===== slsgo synth =====
func newSynthCmd(d deps, opts *globalOptions) *cobra.Command {
	var outdir string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Build all Go functions and synthesize a CDK cloud assembly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, d, opts)
			if err != nil {
				return err
			}
			ctx := logger.NewContextWithLogger(cmd.Context(), s.log)
			if err := s.orch.RunHook(ctx, orchestrator.BeforePackageAll, ""); err != nil {
				return reported(err)
			}
			if err := engine.Synth(s.svc, outdir); err != nil {
				return err
			}
			s.console.Success("Synth ready in " + outdir + "/")
			return nil
		},
	}
	cmd.Flags().StringVar(&outdir, "outdir", "cdk.out", "Cloud assembly output directory")
	return cmd
}

// ===== slsgo doctor =====
func newDoctorCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the tools a build needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			missing := 0
			for _, bin := range []string{"go", "node", "cdk"} {
				if _, err := exec.LookPath(bin); err != nil {
					fmt.Fprintf(d.Out, "❌ %s not found\n", bin)
					missing++
				} else {
					fmt.Fprintf(d.Out, "✅ %s OK\n", bin)
				}
			}
			if missing > 0 {
				return reported(fmt.Errorf("%d tools missing", missing))
			}
			return nil
		},
	}
}
