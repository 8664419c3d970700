// Package orchestrator drives a build run over the service's functions:
// classify, resolve paths, compile, package, then rewrite the registry.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qrioso-software/slsgo/internal/build"
	"github.com/qrioso-software/slsgo/internal/config"
	"github.com/qrioso-software/slsgo/internal/packaging"
	"github.com/qrioso-software/slsgo/internal/paths"
	"github.com/qrioso-software/slsgo/internal/runtimes"
	"github.com/qrioso-software/slsgo/internal/ui"
)

type Orchestrator struct {
	Service *config.Service
	// Overrides are layered over the service's custom.go settings.
	Overrides []*config.Override
	Toolchain build.Toolchain
	Console   *ui.Console
	Logger    *zap.Logger

	// NewArchiver replaces the zip writer used for bootstrap packages.
	NewArchiver func() packaging.Archiver

	// invoking is set by a local invoke, after which the bulk packaging
	// hook has nothing left to do.
	invoking bool
}

func New(svc *config.Service, tc build.Toolchain, console *ui.Console, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		Service:   svc,
		Toolchain: tc,
		Console:   console,
		Logger:    log,
	}
}

// outcome is one function's rewrite, applied after every build finished.
type outcome struct {
	name    string
	handler string
	pkg     *config.Package
}

type run struct {
	cfg      config.BuildConfig
	executor *build.Executor
	packager *packaging.Packager
}

func (o *Orchestrator) newRun() *run {
	cfg := o.Service.BuildConfig(o.Overrides...)
	root := o.Service.RootPath

	packager := packaging.NewPackager(root, o.Logger)
	if o.NewArchiver != nil {
		packager.NewArchiver = o.NewArchiver
	}
	return &run{
		cfg:      cfg,
		executor: build.NewExecutor(o.Toolchain, cfg, root, o.Logger),
		packager: packager,
	}
}

// CompileAll builds every build candidate in parallel. The first failure
// cancels the rest and nothing is rewritten in the registry.
func (o *Orchestrator) CompileAll(ctx context.Context) error {
	if o.invoking {
		return nil
	}

	start := time.Now()
	r := o.newRun()
	names := o.Service.FunctionNames()
	results := make([]*outcome, len(names))

	err := build.ForEach(ctx, len(names), func(ctx context.Context, i int) error {
		res, err := o.compile(ctx, r, names[i])
		results[i] = res
		return err
	})
	if err != nil {
		o.report(err)
		return err
	}

	n := o.apply(results...)
	o.Logger.Info("Compiled functions", zap.Int("built", n), zap.Int("total", len(names)))
	o.timing("Compilation time", time.Since(start))
	return nil
}

// CompileFunction builds a single function.
func (o *Orchestrator) CompileFunction(ctx context.Context, name string) error {
	if _, ok := o.Service.Functions[name]; !ok {
		return fmt.Errorf("function %q is not defined", name)
	}

	start := time.Now()
	res, err := o.compile(ctx, o.newRun(), name)
	if err != nil {
		o.report(err)
		return err
	}
	o.apply(res)
	o.timing(fmt.Sprintf("Compilation time (%s)", name), time.Since(start))
	return nil
}

// CompileFunctionAndIgnorePackage builds one function for a local invoke
// and turns later CompileAll calls into no-ops.
func (o *Orchestrator) CompileFunctionAndIgnorePackage(ctx context.Context, name string) error {
	o.invoking = true
	return o.CompileFunction(ctx, name)
}

// compile returns nil for functions that are not build candidates.
func (o *Orchestrator) compile(ctx context.Context, r *run, name string) (*outcome, error) {
	fn := o.Service.Functions[name]
	if fn == nil {
		return nil, nil
	}

	cls := runtimes.Classify(o.Service.EffectiveRuntime(fn), r.cfg)
	if !cls.Candidate {
		o.Logger.Debug("Skipping function", zap.String("function", name), zap.String("runtime", cls.Runtime))
		return nil, nil
	}

	task, err := paths.Resolve(o.Service.RootPath, r.cfg, name, fn.Handler)
	if err != nil {
		return nil, &build.Error{Function: name, Dir: r.cfg.BaseDir, Err: err}
	}
	if err := r.executor.Build(ctx, task); err != nil {
		return nil, err
	}

	var pkg *config.Package
	if cls.Bootstrap {
		var include []string
		if fn.Package != nil {
			include = fn.Package.Include
		}
		pkg, err = r.packager.Bootstrap(name, task.BinPath, include)
		if err != nil {
			return nil, err
		}
	} else {
		pkg = packaging.Plain(task.BinPath, fn.Package)
	}

	return &outcome{name: name, handler: task.BinPath, pkg: pkg}, nil
}

func (o *Orchestrator) apply(results ...*outcome) int {
	n := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		fn := o.Service.Functions[res.name]
		fn.Handler = res.handler
		fn.Package = res.pkg
		n++
	}
	return n
}

func (o *Orchestrator) report(err error) {
	if o.Console == nil {
		return
	}
	var be *build.Error
	if errors.As(err, &be) {
		o.Console.CompileError(be.Function, be.Dir, be.Err)
		return
	}
	o.Console.Warn("%v", err)
}

func (o *Orchestrator) timing(label string, d time.Duration) {
	if o.Console != nil {
		o.Console.Timing(label, d)
	}
}
