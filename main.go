package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/3leaps/featurebump/internal/bump"
	"github.com/3leaps/featurebump/internal/catalog"
	"github.com/3leaps/featurebump/internal/ciout"
	"github.com/3leaps/featurebump/internal/host"
	"github.com/3leaps/featurebump/internal/host/github"
	"github.com/3leaps/featurebump/internal/host/npm"
	"github.com/3leaps/featurebump/internal/metrics"
	"github.com/3leaps/featurebump/internal/model"
	"github.com/3leaps/featurebump/pkg/update"
)

const appName = "featurebump"

var version = "dev"

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := rootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Bump pinned devcontainer feature versions",
		Long: `featurebump checks the pinned default version of every devcontainer
feature against its upstream (GitHub releases or npm dist-tags) and rewrites
devcontainer-feature.json when a newer version is available.

When at least one descriptor was rewritten it sets the step output
updated=true (appended to $GITHUB_OUTPUT, or printed to stdout).`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return check(cmd.Context(), opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	opts.bindGlobal(cmd.PersistentFlags())
	opts.bindCheck(cmd.Flags())

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check every feature and rewrite outdated pins (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return check(cmd.Context(), opts, stdout, stderr)
		},
	}
	opts.bindCheck(checkCmd.Flags())

	cmd.AddCommand(
		checkCmd,
		&cobra.Command{
			Use:   "strategies",
			Short: "List the effective feature update strategies",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				opts.resolve(os.Getenv)
				cat, err := loadCatalog(opts.strategiesPath)
				if err != nil {
					return err
				}
				return printStrategies(stdout, cat)
			},
		},
		&cobra.Command{
			Use:   "compare A B",
			Short: "Show how two version strings are parsed and ordered",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				printComparison(stdout, args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(stdout, "%s %s\n", appName, version)
			},
		},
	)

	return cmd
}

func check(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	opts.resolve(os.Getenv)
	if err := opts.validate(); err != nil {
		return err
	}

	level, _ := parseLevel(opts.logLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cat, err := loadCatalog(opts.strategiesPath)
	if err != nil {
		return err
	}

	client := host.New(host.UserAgent(version), opts.timeout)
	rec := metrics.New()
	runner := &bump.Runner{
		Catalog:        cat,
		Releases:       github.NewReleases(client, opts.githubAPI, github.TokenFromEnv()),
		Packages:       npm.NewRegistry(client, opts.npmRegistry),
		FeaturesDir:    opts.featuresDir,
		DescriptorName: opts.descriptorName,
		Only:           opts.only,
		DryRun:         opts.dryRun,
		Logger:         logger,
		Metrics:        rec,
	}

	logger.Debug("Checking features",
		"features_dir", opts.featuresDir,
		"strategies", cat.Len(),
		"dry_run", opts.dryRun)

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	changed := res.Changed()
	ids := make([]string, 0, len(changed))
	for _, rep := range changed {
		ids = append(ids, rep.ID)
	}
	logger.Info("Run complete",
		"checked", len(res.Reports),
		"changed", strings.Join(ids, ","),
		"updated", res.Updated,
		"dry_run", opts.dryRun)

	if opts.metricsFile != "" {
		if err := rec.WriteTextfile(opts.metricsFile); err != nil {
			logger.Warn("Failed to write metrics", "error", err)
		}
	}

	if !res.Updated {
		return nil
	}
	if err := ciout.New(opts.githubOutput, stdout).Set(opts.outputName, "true"); err != nil {
		return fmt.Errorf("set step output: %w", err)
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func printStrategies(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tKIND\tSOURCE\tTAGS")
	for _, id := range cat.IDs() {
		s, _ := cat.Lookup(id)
		tags := strings.Join(s.Tags(), ",")
		if s.Kind == model.KindRegistryRelease {
			tags = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, s.Kind, s.Source(), tags)
	}
	return tw.Flush()
}

func printComparison(w io.Writer, a, b string) {
	va, okA := update.TryParse(a)
	vb, okB := update.TryParse(b)
	fmt.Fprintf(w, "A: %-20s %s\n", a, describeVersion(va, okA))
	fmt.Fprintf(w, "B: %-20s %s\n", b, describeVersion(vb, okB))
	switch c := update.CompareVersions(va, vb); {
	case c < 0:
		fmt.Fprintln(w, "A is newer")
	case c > 0:
		fmt.Fprintln(w, "B is newer")
	default:
		fmt.Fprintln(w, "equal")
	}
}

func describeVersion(v update.Version, ok bool) string {
	if !ok {
		return "(malformed)"
	}
	return fmt.Sprintf("major=%d minor=%d patch=%d channel=%s seq=%d", v.Major, v.Minor, v.Patch, v.Channel, v.Sequence)
}
