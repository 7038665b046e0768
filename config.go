package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/3leaps/featurebump/internal/ciout"
	"github.com/3leaps/featurebump/internal/descriptor"
	"github.com/3leaps/featurebump/internal/host"
	"github.com/3leaps/featurebump/internal/host/github"
	"github.com/3leaps/featurebump/internal/host/npm"
)

const (
	envFeaturesDir = "FEATUREBUMP_FEATURES_DIR"
	envStrategies  = "FEATUREBUMP_STRATEGIES"
	envGitHubAPI   = "FEATUREBUMP_GITHUB_API"
	envNPMRegistry = "FEATUREBUMP_NPM_REGISTRY"

	defaultFeaturesDir = "src"
	defaultOutputName  = "updated"
)

// options collects every setting of a check run. String fields left empty by
// flags are filled from the environment, then from built-in defaults.
type options struct {
	featuresDir    string
	descriptorName string
	strategiesPath string
	githubAPI      string
	npmRegistry    string
	outputName     string
	githubOutput   string
	metricsFile    string
	logLevel       string
	only           []string
	dryRun         bool
	timeout        time.Duration
}

func (o *options) bindGlobal(fs *pflag.FlagSet) {
	fs.StringVar(&o.strategiesPath, "strategies", "", "Strategy catalog file, YAML or JSON (env "+envStrategies+"; default: built-in catalog)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func (o *options) bindCheck(fs *pflag.FlagSet) {
	fs.StringVar(&o.featuresDir, "features-dir", "", "Directory holding one subdirectory per feature (env "+envFeaturesDir+"; default "+defaultFeaturesDir+")")
	fs.StringVar(&o.descriptorName, "descriptor", descriptor.FileName, "Descriptor file name inside each feature directory")
	fs.StringVar(&o.githubAPI, "github-api", "", "GitHub API base URL (env "+envGitHubAPI+"; default "+github.DefaultAPIBase+")")
	fs.StringVar(&o.npmRegistry, "npm-registry", "", "npm registry base URL (env "+envNPMRegistry+"; default "+npm.DefaultRegistry+")")
	fs.StringVar(&o.outputName, "output-name", defaultOutputName, "Name of the step output set when a descriptor was rewritten")
	fs.StringVar(&o.githubOutput, "github-output", "", "Step output file (env "+ciout.EnvFile+"; default: print to stdout)")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus text format")
	fs.StringArrayVar(&o.only, "only", nil, "Check only this feature id (repeatable)")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Report decisions without rewriting descriptors or setting the step output")
	fs.DurationVar(&o.timeout, "timeout", host.DefaultTimeout, "Per-request HTTP timeout")
}

func (o *options) resolve(getenv func(string) string) {
	o.featuresDir = firstSet(o.featuresDir, getenv(envFeaturesDir), defaultFeaturesDir)
	o.strategiesPath = firstSet(o.strategiesPath, getenv(envStrategies))
	o.githubAPI = firstSet(o.githubAPI, getenv(envGitHubAPI), github.DefaultAPIBase)
	o.npmRegistry = firstSet(o.npmRegistry, getenv(envNPMRegistry), npm.DefaultRegistry)
	o.githubOutput = firstSet(o.githubOutput, getenv(ciout.EnvFile))
	o.descriptorName = firstSet(o.descriptorName, descriptor.FileName)
	o.outputName = firstSet(o.outputName, defaultOutputName)
}

func (o *options) validate() error {
	var problems []string
	if strings.ContainsAny(o.descriptorName, `/\`) {
		problems = append(problems, fmt.Sprintf("--descriptor %q must be a file name, not a path", o.descriptorName))
	}
	if strings.ContainsAny(o.outputName, "=\r\n") {
		problems = append(problems, fmt.Sprintf("--output-name %q must not contain '=' or newlines", o.outputName))
	}
	if o.timeout < 0 {
		problems = append(problems, "--timeout must not be negative")
	}
	if _, err := parseLevel(o.logLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid options:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("--log-level %q: want debug, info, warn or error", s)
	}
	return level, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
