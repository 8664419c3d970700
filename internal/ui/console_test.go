package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	c := New(&buf)

	c.CompileError("hello", "functions/hello", errors.New("exit status 2"))
	c.Timing("Compilation time", 1500*time.Millisecond)
	c.Success("done")

	assert.Equal(t,
		"slsgo: Error compiling \"hello\" function (cwd: functions/hello): exit status 2\n"+
			"slsgo: Compilation time: 1.5s\n"+
			"✅ done\n",
		buf.String())
}
