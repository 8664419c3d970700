package watch

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qrioso-software/slsgo/internal/config"
)

func testService(t *testing.T) *config.Service {
	return &config.Service{
		Service:  "demo",
		RootPath: t.TempDir(),
		Functions: map[string]*config.Function{
			"hello": {Runtime: "go1.x", Handler: "functions/hello/main.go"},
			"api":   {Runtime: "go1.x", Handler: "functions/hello/api"},
			"node":  {Runtime: "nodejs20.x", Handler: "functions/node"},
		},
	}
}

func TestNewMapsCandidates(t *testing.T) {
	svc := testService(t)
	w, err := New(svc, config.Defaults(""), nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(svc.RootPath, "functions", "hello"),
		filepath.Join(svc.RootPath, "functions", "hello", "api"),
	}, w.Dirs())
}

func TestFunctionForPath(t *testing.T) {
	svc := testService(t)
	w, err := New(svc, config.Defaults(""), nil, nil)
	require.NoError(t, err)

	root := svc.RootPath
	assert.Equal(t, "hello", w.FunctionForPath(filepath.Join(root, "functions", "hello", "main.go")))
	assert.Equal(t, "api", w.FunctionForPath(filepath.Join(root, "functions", "hello", "api", "h.go")))
	assert.Equal(t, "", w.FunctionForPath(filepath.Join(root, "functions", "helloworld", "x.go")))
	assert.Equal(t, "", w.FunctionForPath(filepath.Join(root, "functions", "node", "index.js")))
}

func TestRelevant(t *testing.T) {
	assert.True(t, Relevant("/x/main.go"))
	assert.True(t, Relevant("/x/go.mod"))
	assert.True(t, Relevant("go.sum"))
	assert.False(t, Relevant("/x/README.md"))
}

func TestLoopDebouncesRebuilds(t *testing.T) {
	svc := testService(t)

	var mu sync.Mutex
	var rebuilt []string
	done := make(chan struct{}, 1)
	rebuild := func(_ context.Context, name string) error {
		mu.Lock()
		rebuilt = append(rebuilt, name)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}

	w, err := New(svc, config.Defaults(""), rebuild, zaptest.NewLogger(t))
	require.NoError(t, err)
	w.Debounce = 10 * time.Millisecond

	events := make(chan fsnotify.Event, 4)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finished := make(chan error, 1)
	go func() { finished <- w.loop(ctx, events, errs) }()

	file := filepath.Join(svc.RootPath, "functions", "hello", "main.go")
	events <- fsnotify.Event{Name: file, Op: fsnotify.Write}
	events <- fsnotify.Event{Name: file, Op: fsnotify.Write}
	events <- fsnotify.Event{Name: filepath.Join(svc.RootPath, "notes.txt"), Op: fsnotify.Write}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild not triggered")
	}
	cancel()
	require.NoError(t, <-finished)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello"}, rebuilt)
}
