package main

import (
	"os"

	"github.com/3leaps/featurebump/internal/cli"
)

// cli.Run is the single entry point for both the binary and in-process tests.
func init() {
	cli.Handler = run
}

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
