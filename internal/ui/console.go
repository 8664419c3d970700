// Package ui prints the user-facing progress and failure lines.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

const prefix = "slsgo:"

// Console writes prefixed lines; the message body is highlighted in yellow
// when the output is a terminal.
type Console struct {
	Out    io.Writer
	yellow *color.Color
}

func New(out io.Writer) *Console {
	return &Console{Out: out, yellow: color.New(color.FgYellow)}
}

// Warn prints one highlighted line.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintf(c.Out, "%s %s\n", prefix, c.yellow.Sprintf(format, args...))
}

// Timing reports how long a compilation run took.
func (c *Console) Timing(label string, d time.Duration) {
	c.Warn("%s: %s", label, d.Round(time.Millisecond))
}

// CompileError reports a failed build for function name run in dir.
func (c *Console) CompileError(name, dir string, err error) {
	c.Warn("Error compiling %q function (cwd: %s): %v", name, dir, err)
}

// Success prints a success message with a checkmark.
func (c *Console) Success(msg string) {
	fmt.Fprintf(c.Out, "✅ %s\n", msg)
}
