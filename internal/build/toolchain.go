package build

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	goruntime "runtime"
	"strings"
)

// Invocation is one toolchain call.
type Invocation struct {
	Command string
	Dir     string
	Env     []string
}

// Toolchain runs a build command. Implementations block until the process
// exits and return an error for a non-zero exit or a failed spawn.
type Toolchain interface {
	Run(ctx context.Context, inv Invocation) ([]byte, error)
}

// ShellToolchain runs the command through the platform shell so the
// template may carry quoting such as -ldflags="-s -w".
type ShellToolchain struct{}

func (ShellToolchain) Run(ctx context.Context, inv Invocation) ([]byte, error) {
	var cmd *exec.Cmd
	if goruntime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", inv.Command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", inv.Command)
	}
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, msg)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}
