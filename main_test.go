package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/featurebump/internal/cli"
	"github.com/3leaps/featurebump/internal/descriptor"
)

// upstream serves GitHub latest-release and npm dist-tag documents. Paths not
// listed answer 404; values equal to "500" answer with a server error.
func upstream(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := docs[r.URL.Path]
		switch {
		case !ok:
			http.NotFound(w, r)
			return
		case v == "500":
			http.Error(w, "upstream unavailable", http.StatusInternalServerError)
			return
		}

		var body any = map[string]string{"version": v}
		if strings.HasPrefix(r.URL.Path, "/repos/") {
			body = map[string]string{"tag_name": v}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func feature(t *testing.T, root, id, version string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, descriptor.FileName)
	content := "{\n" +
		"    \"id\": \"" + id + "\",\n" +
		"    \"version\": \"1.0.0\",\n" +
		"    \"name\": \"" + id + " <tool>\",\n" +
		"    \"options\": {\n" +
		"        \"version\": {\n" +
		"            \"type\": \"string\",\n" +
		"            \"default\": \"" + version + "\"\n" +
		"        }\n" +
		"    }\n" +
		"}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func pinOf(t *testing.T, path string) string {
	t.Helper()
	d, err := descriptor.Load(path)
	require.NoError(t, err)
	v, ok := d.DefaultVersion()
	require.True(t, ok)
	return v
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := cli.Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func checkArgs(ts *httptest.Server, root, output string, extra ...string) []string {
	args := []string{
		"--features-dir", root,
		"--github-api", ts.URL,
		"--npm-registry", ts.URL,
		"--github-output", output,
	}
	return append(args, extra...)
}

func TestCheckUpdatesOutdatedPinsAndSetsOutput(t *testing.T) {
	t.Parallel()

	ts := upstream(t, map[string]string{
		"/repos/ryanoasis/nerd-fonts/releases/latest": "v3.4.0",
		"/bmad-method/latest":                         "4.44.1",
		"/bmad-method/beta":                           "6.0.0-Beta.7",
		"/@openai/codex/latest":                       "0.46.0",
		"/@google/gemini-cli/latest":                  "500",
		"/opencode-ai/latest":                         "0.15.0",
	})

	root := t.TempDir()
	nerd := feature(t, root, "nerd-font", "3.3.0")
	bmad := feature(t, root, "bmad-method", "4.44.0")
	codex := feature(t, root, "codex", "0.46.0")
	gemini := feature(t, root, "gemini-cli", "0.8.0")
	claude := feature(t, root, "claude-code", "latest")
	geminiBefore, err := os.ReadFile(gemini)
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "github_output")
	metricsFile := filepath.Join(t.TempDir(), "featurebump.prom")

	code, stdout, stderr := runCLI(checkArgs(ts, root, output, "--metrics-file", metricsFile)...)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	assert.Equal(t, "3.4.0", pinOf(t, nerd))
	assert.Equal(t, "6.0.0-Beta.7", pinOf(t, bmad))
	assert.Equal(t, "0.46.0", pinOf(t, codex))
	assert.Equal(t, "latest", pinOf(t, claude))

	geminiAfter, err := os.ReadFile(gemini)
	require.NoError(t, err)
	assert.Equal(t, geminiBefore, geminiAfter)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "updated=true\n", string(data))

	assert.Contains(t, stderr, "Update available for nerd-font: 3.3.0 -> 3.4.0")
	assert.Contains(t, stderr, "No update needed for codex (Current: 0.46.0, Latest: 0.46.0)")
	assert.Contains(t, stderr, "Failed to check version for gemini-cli")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `featurebump_features_total{status="updated"} 2`)
	assert.Contains(t, string(prom), "featurebump_updated 1")
}

func TestCheckRewritePreservesOtherFields(t *testing.T) {
	t.Parallel()

	ts := upstream(t, map[string]string{"/@openai/codex/latest": "0.46.0"})
	root := t.TempDir()
	path := feature(t, root, "codex", "0.45.0")
	output := filepath.Join(t.TempDir(), "github_output")

	code, _, stderr := runCLI(checkArgs(ts, root, output, "check")...)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "{\n" +
		"    \"id\": \"codex\",\n" +
		"    \"version\": \"1.0.0\",\n" +
		"    \"name\": \"codex <tool>\",\n" +
		"    \"options\": {\n" +
		"        \"version\": {\n" +
		"            \"type\": \"string\",\n" +
		"            \"default\": \"0.46.0\"\n" +
		"        }\n" +
		"    }\n" +
		"}\n"
	assert.Equal(t, want, string(data))
}

func TestCheckWithoutChangesLeavesOutputAlone(t *testing.T) {
	t.Parallel()

	ts := upstream(t, map[string]string{"/@openai/codex/latest": "0.45.0"})
	root := t.TempDir()
	feature(t, root, "codex", "0.45.0")
	output := filepath.Join(t.TempDir(), "github_output")

	code, stdout, stderr := runCLI(checkArgs(ts, root, output)...)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)
	assert.NoFileExists(t, output)
}

func TestCheckDryRun(t *testing.T) {
	t.Parallel()

	ts := upstream(t, map[string]string{"/@openai/codex/latest": "0.46.0"})
	root := t.TempDir()
	path := feature(t, root, "codex", "0.45.0")
	output := filepath.Join(t.TempDir(), "github_output")

	code, _, stderr := runCLI(checkArgs(ts, root, output, "--dry-run")...)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "0.45.0", pinOf(t, path))
	assert.NoFileExists(t, output)
	assert.Contains(t, stderr, "Update available for codex: 0.45.0 -> 0.46.0")
	assert.Contains(t, stderr, "dry_run=true")
}

func TestCheckOnlyAndCustomOutputName(t *testing.T) {
	t.Parallel()

	ts := upstream(t, map[string]string{
		"/@openai/codex/latest": "0.46.0",
		"/opencode-ai/latest":   "0.15.0",
	})
	root := t.TempDir()
	codex := feature(t, root, "codex", "0.45.0")
	opencode := feature(t, root, "opencode", "0.14.0")
	output := filepath.Join(t.TempDir(), "github_output")

	code, _, stderr := runCLI(checkArgs(ts, root, output, "--only", "opencode", "--output-name", "bumped")...)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "0.45.0", pinOf(t, codex))
	assert.Equal(t, "0.15.0", pinOf(t, opencode))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "bumped=true\n", string(data))
}

func TestCheckUsesStrategyOverrideFile(t *testing.T) {
	t.Parallel()

	ts := upstream(t, map[string]string{"/repos/anthropics/claude-code/releases/latest": "v2.0.1"})
	root := t.TempDir()
	path := feature(t, root, "claude-code", "2.0.0")
	output := filepath.Join(t.TempDir(), "github_output")

	strategies := filepath.Join(t.TempDir(), "strategies.yaml")
	yaml := "schema: featurebump/strategies\n" +
		"version: 1\n" +
		"features:\n" +
		"  claude-code:\n" +
		"    kind: github-release\n" +
		"    repo: anthropics/claude-code\n"
	require.NoError(t, os.WriteFile(strategies, []byte(yaml), 0o644))

	code, _, stderr := runCLI(checkArgs(ts, root, output, "--strategies", strategies)...)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "2.0.1", pinOf(t, path))
}

func TestCheckFailures(t *testing.T) {
	t.Parallel()

	ts := upstream(t, nil)
	output := filepath.Join(t.TempDir(), "github_output")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing features dir",
			args: checkArgs(ts, filepath.Join(t.TempDir(), "missing"), output),
			want: "list features in",
		},
		{
			name: "bad log level",
			args: checkArgs(ts, t.TempDir(), output, "--log-level", "loud"),
			want: "--log-level",
		},
		{
			name: "descriptor is a path",
			args: checkArgs(ts, t.TempDir(), output, "--descriptor", "nested/feature.json"),
			want: "must be a file name",
		},
		{
			name: "missing strategy file",
			args: checkArgs(ts, t.TempDir(), output, "--strategies", filepath.Join(t.TempDir(), "none.yaml")),
			want: "read strategy catalog",
		},
		{
			name: "unexpected argument",
			args: []string{"nerd-font"},
			want: "unknown command",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, _, stderr := runCLI(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, "Error: ")
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestStrategiesCommand(t *testing.T) {
	t.Parallel()

	code, stdout, stderr := runCLI("strategies")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"FEATURE", "KIND", "SOURCE", "TAGS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"bmad-method", "package-registry", "bmad-method", "latest,beta"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"codex", "package-registry", "@openai/codex", "latest"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"nerd-font", "registry-release", "ryanoasis/nerd-fonts", "-"}, strings.Fields(lines[4]))
	assert.NotContains(t, stdout, "claude-code")
}

func TestCompareCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want string
	}{
		{"1.2.3", "1.2.3-beta.1", "A is newer"},
		{"5.0.0-beta.9", "6.0.0-Beta.7", "B is newer"},
		{"v1.0.0", "0.0.0-alpha.0", "equal"},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			t.Parallel()
			code, stdout, stderr := runCLI("compare", tt.a, tt.b)
			require.Equal(t, 0, code, stderr)
			assert.True(t, strings.HasSuffix(stdout, tt.want+"\n"), stdout)
		})
	}

	code, stdout, _ := runCLI("compare", "v1.0.0", "1.0.0")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "(malformed)")
	assert.Contains(t, stdout, "channel=stable")

	code, stdout, _ = runCLI("compare", "0.0.0-rc.0", "1.0.0-Stable.1")
	require.Equal(t, 0, code)
	assert.NotContains(t, stdout, "(malformed)")
	assert.Contains(t, stdout, "channel=unranked")
	assert.Contains(t, stdout, "channel=stable seq=1")
	assert.True(t, strings.HasSuffix(stdout, "B is newer\n"), stdout)

	code, _, stderr := runCLI("compare", "1.0.0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts 2 arg(s)")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI("version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "featurebump dev\n", stdout)
}
