// Package paths works out where the compiler runs for a function, what it
// is asked to compile, and where the binary lands.
package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qrioso-software/slsgo/internal/config"
)

// SourceSuffix marks a handler that names a single source file rather than
// a package directory.
const SourceSuffix = ".go"

// Layout selects how the working directory is derived.
type Layout int

const (
	// LayoutBaseDir compiles every function from baseDir with the handler
	// passed through unchanged.
	LayoutBaseDir Layout = iota
	// LayoutHandlerDir compiles each function from its handler's own
	// directory.
	LayoutHandlerDir
)

func (l Layout) String() string {
	switch l {
	case LayoutBaseDir:
		return "baseDir"
	case LayoutHandlerDir:
		return "handlerDir"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Macros maps reserved baseDir values to the layout they stand for. The
// handler-dir layout reached through a macro is rooted at the project dir.
var Macros = map[string]Layout{
	config.HandlerDirMacro: LayoutHandlerDir,
}

// Task is everything the executor needs to compile one function. WorkDir
// is relative to the project directory, Output is relative to WorkDir.
type Task struct {
	Function string
	WorkDir  string
	Source   string
	Output   string
	// BinPath is the binary relative to the project dir, slash separated.
	BinPath string
}

// Resolve computes the compile task for function name with the given
// handler. projectDir anchors all relative paths.
func Resolve(projectDir string, cfg config.BuildConfig, name, handler string) (Task, error) {
	layout, root := selectLayout(cfg)

	t := Task{
		Function: name,
		BinPath:  filepath.ToSlash(filepath.Join(cfg.BinDir, name)),
	}

	switch layout {
	case LayoutHandlerDir:
		if strings.HasSuffix(handler, SourceSuffix) {
			t.WorkDir = filepath.Join(root, filepath.Dir(handler))
			t.Source = filepath.Base(handler)
		} else {
			t.WorkDir = filepath.Join(root, handler)
			t.Source = "."
		}
	default:
		t.WorkDir = root
		t.Source = handler
	}

	out, err := relOutput(projectDir, t.WorkDir, filepath.Join(cfg.BinDir, name))
	if err != nil {
		return Task{}, fmt.Errorf("resolving output path for %s: %w", name, err)
	}
	t.Output = out
	return t, nil
}

func selectLayout(cfg config.BuildConfig) (Layout, string) {
	if layout, ok := Macros[cfg.BaseDir]; ok {
		return layout, "."
	}
	if cfg.Monorepo {
		return LayoutHandlerDir, cfg.BaseDir
	}
	return LayoutBaseDir, cfg.BaseDir
}

func relOutput(projectDir, workDir, bin string) (string, error) {
	from, err := Abs(projectDir, workDir)
	if err != nil {
		return "", err
	}
	to, err := Abs(projectDir, bin)
	if err != nil {
		return "", err
	}
	return filepath.Rel(from, to)
}

// Abs resolves p against projectDir unless it is already absolute.
func Abs(projectDir, p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if projectDir == "" {
		return filepath.Abs(p)
	}
	return filepath.Abs(filepath.Join(projectDir, p))
}
