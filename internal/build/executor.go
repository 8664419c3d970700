// Package build runs the Go toolchain for resolved compile tasks.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qrioso-software/slsgo/internal/command"
	"github.com/qrioso-software/slsgo/internal/config"
	"github.com/qrioso-software/slsgo/internal/paths"
)

// ErrEmptyCommand is returned for a template with no executable, only
// assignments or nothing at all.
var ErrEmptyCommand = errors.New("build command has no executable")

// Error is a failed build of one function.
type Error struct {
	Function string
	Dir      string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("error compiling %q function (cwd: %s): %v", e.Function, e.Dir, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Executor turns resolved tasks into toolchain invocations and runs them.
type Executor struct {
	Toolchain  Toolchain
	Config     config.BuildConfig
	ProjectDir string
	// Environ supplies the inherited environment; os.Environ when nil.
	Environ func() []string
	Logger  *zap.Logger
}

// NewExecutor returns an Executor that inherits the process environment.
func NewExecutor(tc Toolchain, cfg config.BuildConfig, projectDir string, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		Toolchain:  tc,
		Config:     cfg,
		ProjectDir: projectDir,
		Environ:    os.Environ,
		Logger:     log,
	}
}

// Invocation builds the toolchain call for t without running it.
func (e *Executor) Invocation(t paths.Task) (Invocation, error) {
	if _, exe := command.Parse(e.Config.Cmd); exe == "" {
		return Invocation{}, ErrEmptyCommand
	}
	overrides, cmd := command.Parse(fmt.Sprintf("%s -o %s %s", e.Config.Cmd, t.Output, t.Source))

	dir, err := paths.Abs(e.ProjectDir, t.WorkDir)
	if err != nil {
		return Invocation{}, err
	}

	environ := e.Environ
	if environ == nil {
		environ = os.Environ
	}
	return Invocation{
		Command: cmd,
		Dir:     dir,
		Env:     MergeEnv(environ(), map[string]string{"CGO_ENABLED": e.Config.CgoEnv()}, overrides),
	}, nil
}

// Build compiles one task.
func (e *Executor) Build(ctx context.Context, t paths.Task) error {
	inv, err := e.Invocation(t)
	if err != nil {
		return &Error{Function: t.Function, Dir: t.WorkDir, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Join(inv.Dir, t.Output)), 0755); err != nil {
		return &Error{Function: t.Function, Dir: t.WorkDir, Err: fmt.Errorf("error creating output directory: %w", err)}
	}

	log := e.Logger.With(zap.String("function", t.Function), zap.String("cwd", t.WorkDir))
	log.Debug("Compiling", zap.String("cmd", inv.Command))

	start := time.Now()
	out, err := e.Toolchain.Run(ctx, inv)
	if err != nil {
		return &Error{Function: t.Function, Dir: t.WorkDir, Err: err}
	}
	if len(out) > 0 {
		log.Debug("Build output", zap.ByteString("stdout", out))
	}
	log.Info("Built", zap.String("binary", t.BinPath), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// BuildAll compiles every task in parallel and stops at the first failure.
func (e *Executor) BuildAll(ctx context.Context, tasks []paths.Task) error {
	return ForEach(ctx, len(tasks), func(ctx context.Context, i int) error {
		return e.Build(ctx, tasks[i])
	})
}

// ForEach runs fn for 0..n-1 with at most one call per CPU in flight. The
// first error cancels the context handed to the remaining calls and is
// the one returned.
func ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(goruntime.NumCPU())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}

// MergeEnv overlays layers onto base, later layers winning, and returns
// the result as sorted KEY=value pairs.
func MergeEnv(base []string, layers ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
