// Package main provides the kungfu CLI, a command-line front end to the
// page-notes store.
package main

import (
	"fmt"
	"os"
)

// Version is the kungfu release, overridden at build time with
// -ldflags "-X main.Version=...".
var Version = "0.1.0"

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kungfu:", err)
		os.Exit(exitCode(err))
	}
}
