package main

import (
	"fmt"
	"io"
	"runtime"
)

// Version is the CLI version, overridable at build time with
// -ldflags "-X main.Version=...".
var Version = "dev"

func runVersion(args []string, stdout io.Writer) int {
	fmt.Fprintf(stdout, "djtemplates %s (%s)\n", Version, runtime.Version())
	return ExitCodeSuccess
}
