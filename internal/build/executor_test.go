package build

import (
	"context"
	"errors"
	"path/filepath"
	goruntime "runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qrioso-software/slsgo/internal/config"
	"github.com/qrioso-software/slsgo/internal/paths"
)

type fakeToolchain struct {
	mu    sync.Mutex
	calls []Invocation
	fail  map[string]error // keyed by Dir
}

func (f *fakeToolchain) Run(_ context.Context, inv Invocation) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inv)
	return nil, f.fail[inv.Dir]
}

func envMap(env []string) map[string]string {
	m := map[string]string{}
	for _, kv := range env {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return m
}

func newExecutor(t *testing.T, tc Toolchain, cfg config.BuildConfig) (*Executor, string) {
	project := t.TempDir()
	e := NewExecutor(tc, cfg, project, zaptest.NewLogger(t))
	e.Environ = func() []string { return []string{"PATH=/usr/bin", "CGO_ENABLED=1", "GOOS=darwin"} }
	return e, project
}

func TestInvocationDefaults(t *testing.T) {
	e, project := newExecutor(t, &fakeToolchain{}, config.Defaults(""))

	task, err := paths.Resolve(project, e.Config, "testFunc2", "functions/func2/main.go")
	require.NoError(t, err)

	inv, err := e.Invocation(task)
	require.NoError(t, err)
	assert.Equal(t, `go build -ldflags="-s -w" -o .bin/testFunc2 functions/func2/main.go`, inv.Command)
	assert.Equal(t, project, inv.Dir)

	env := envMap(inv.Env)
	assert.Equal(t, "linux", env["GOOS"], "parsed assignments win over inherited env")
	assert.Equal(t, "0", env["CGO_ENABLED"], "cgo toggle wins over inherited env")
	assert.Equal(t, "/usr/bin", env["PATH"])
}

func TestInvocationCustomCommand(t *testing.T) {
	cfg := config.Defaults("")
	cfg.Cmd = "CGO_ENABLED=1 GOOS=linux go build"
	e, project := newExecutor(t, &fakeToolchain{}, cfg)

	task, err := paths.Resolve(project, cfg, "testFunc1", "functions/func1/main.go")
	require.NoError(t, err)
	inv, err := e.Invocation(task)
	require.NoError(t, err)

	assert.Equal(t, "go build -o .bin/testFunc1 functions/func1/main.go", inv.Command)
	env := envMap(inv.Env)
	assert.Equal(t, "1", env["CGO_ENABLED"], "parsed assignments win over cgo toggle")
	assert.Equal(t, "linux", env["GOOS"])
}

func TestInvocationBaseDir(t *testing.T) {
	cfg := config.Defaults("")
	cfg.BaseDir = "gopath"
	e, project := newExecutor(t, &fakeToolchain{}, cfg)

	task, err := paths.Resolve(project, cfg, "testFunc1", "functions/func1/main.go")
	require.NoError(t, err)
	inv, err := e.Invocation(task)
	require.NoError(t, err)

	assert.Equal(t, `go build -ldflags="-s -w" -o ../.bin/testFunc1 functions/func1/main.go`, inv.Command)
	assert.Equal(t, filepath.Join(project, "gopath"), inv.Dir)
}

func TestInvocationEmptyCommand(t *testing.T) {
	for _, tmpl := range []string{"", "   ", "A=1 B=2"} {
		cfg := config.Defaults("")
		cfg.Cmd = tmpl
		e, _ := newExecutor(t, &fakeToolchain{}, cfg)

		_, err := e.Invocation(paths.Task{Function: "f", WorkDir: ".", Source: "x", Output: "y"})
		assert.ErrorIs(t, err, ErrEmptyCommand, tmpl)

		err = e.Build(context.Background(), paths.Task{Function: "f", WorkDir: ".", Source: "x", Output: "y"})
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "f", be.Function)
	}
}

func TestBuildAll(t *testing.T) {
	tc := &fakeToolchain{}
	cfg := config.Defaults("")
	cfg.Monorepo = true
	e, project := newExecutor(t, tc, cfg)

	var tasks []paths.Task
	for _, name := range []string{"a", "b", "c", "d"} {
		task, err := paths.Resolve(project, cfg, name, "functions/"+name+"/main.go")
		require.NoError(t, err)
		tasks = append(tasks, task)
	}

	require.NoError(t, e.BuildAll(context.Background(), tasks))
	assert.Len(t, tc.calls, 4)
	assert.DirExists(t, filepath.Join(project, ".bin"))
}

func TestBuildFailure(t *testing.T) {
	cfg := config.Defaults("")
	cfg.Monorepo = true
	tc := &fakeToolchain{}
	e, project := newExecutor(t, tc, cfg)
	tc.fail = map[string]error{filepath.Join(project, "functions", "bad"): errors.New("exit status 1")}

	task, err := paths.Resolve(project, cfg, "bad", "functions/bad/main.go")
	require.NoError(t, err)

	err = e.BuildAll(context.Background(), []paths.Task{task})
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "bad", be.Function)
	assert.Equal(t, filepath.Join("functions", "bad"), be.Dir)
	assert.EqualError(t, err, `error compiling "bad" function (cwd: functions/bad): exit status 1`)
}

func TestForEachFailsFast(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32

	err := ForEach(context.Background(), 100, func(ctx context.Context, i int) error {
		ran.Add(1)
		if i == 0 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, boom)
	assert.LessOrEqual(t, int(ran.Load()), 100)
}

func TestForEachLimitIsCPUCount(t *testing.T) {
	limit := goruntime.NumCPU()

	var inFlight, peak atomic.Int64
	full := make(chan struct{})
	var once sync.Once

	err := ForEach(context.Background(), limit*3, func(ctx context.Context, i int) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		if n == int64(limit) {
			once.Do(func() { close(full) })
		}

		// Hold the slot until the ceiling has been reached once.
		select {
		case <-full:
		case <-time.After(5 * time.Second):
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(limit), peak.Load())
}

func TestMergeEnv(t *testing.T) {
	got := MergeEnv(
		[]string{"A=1", "B=2", "BROKEN"},
		map[string]string{"B": "3"},
		map[string]string{"C": "4", "A": "5"},
	)
	assert.Equal(t, []string{"A=5", "B=3", "C=4"}, got)
}
