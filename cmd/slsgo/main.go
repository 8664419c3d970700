package main

import (
	"os"

	"github.com/aws/jsii-runtime-go"

	"github.com/qrioso-software/slsgo/internal/build"
)

func main() {
	code := run(os.Args[1:], deps{
		Out:       os.Stdout,
		Err:       os.Stderr,
		Toolchain: build.ShellToolchain{},
	})
	jsii.Close()
	os.Exit(code)
}
