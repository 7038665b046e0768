package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Not parallel: both tests swap the package-level Handler.

func TestRunWithoutHandler(t *testing.T) {
	saved := Handler
	t.Cleanup(func() { Handler = saved })
	Handler = nil

	var stderr bytes.Buffer
	assert.Equal(t, 1, Run([]string{"version"}, io.Discard, &stderr))
	assert.Contains(t, stderr.String(), "featurebump command not registered")
}

func TestRunDelegatesToHandler(t *testing.T) {
	saved := Handler
	t.Cleanup(func() { Handler = saved })

	var gotArgs []string
	Handler = func(args []string, stdout, _ io.Writer) int {
		gotArgs = args
		_, _ = io.WriteString(stdout, "ok\n")
		return 3
	}

	var stdout bytes.Buffer
	assert.Equal(t, 3, Run([]string{"check", "--dry-run"}, &stdout, io.Discard))
	assert.Equal(t, []string{"check", "--dry-run"}, gotArgs)
	assert.Equal(t, "ok\n", stdout.String())
}
