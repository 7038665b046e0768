// Package ciout publishes step outputs for the invoking CI pipeline.
package ciout

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvFile names the variable GitHub Actions sets to the step output file.
const EnvFile = "GITHUB_OUTPUT"

// Writer appends name=value lines to Path, or prints them to Stdout when Path
// is empty.
type Writer struct {
	Path   string
	Stdout io.Writer
}

func New(path string, stdout io.Writer) *Writer {
	return &Writer{Path: strings.TrimSpace(path), Stdout: stdout}
}

func FromEnv(stdout io.Writer) *Writer {
	return New(os.Getenv(EnvFile), stdout)
}

func (w *Writer) Set(name, value string) error {
	if name == "" || strings.ContainsAny(name, "=\r\n") {
		return fmt.Errorf("invalid output name %q", name)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("output %s: multi-line values are not supported", name)
	}
	line := fmt.Sprintf("%s=%s\n", name, value)

	if w.Path == "" {
		_, err := io.WriteString(w.Stdout, line)
		return err
	}

	// #nosec G304 -- path provided by the CI runner
	f, err := os.OpenFile(w.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.Path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", w.Path, err)
	}
	return f.Close()
}
