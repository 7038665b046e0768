// Package cli lets tests drive the featurebump command in-process.
package cli

import (
	"fmt"
	"io"
)

// Handler runs the featurebump command tree for args and returns the process
// exit code.
//
// The main package assigns it in init. Tests in package main call Run with
// their own stdout/stderr buffers and a throwaway features directory, so the
// whole check pipeline (flag resolution, fetches against httptest upstreams,
// descriptor rewrites, the step output) runs in-process without building or
// exec'ing a binary. Keeping the variable here rather than in main lets other
// packages drive the same entry point without an import cycle.
var Handler func(args []string, stdout, stderr io.Writer) int

// Run invokes Handler. Exit code 1 means a run-level failure; per-feature
// problems are logged and still exit 0.
func Run(args []string, stdout, stderr io.Writer) int {
	if Handler == nil {
		fmt.Fprintln(stderr, "internal error: featurebump command not registered")
		return 1
	}
	return Handler(args, stdout, stderr)
}
