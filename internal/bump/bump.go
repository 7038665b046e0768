// Package bump checks each feature's pinned default version against its
// upstream and rewrites the descriptor when the pin should move.
//
// Features are processed one at a time. A failure while checking one feature
// is logged and recorded in its Report; it never stops the run.
package bump

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/3leaps/featurebump/internal/catalog"
	"github.com/3leaps/featurebump/internal/descriptor"
	"github.com/3leaps/featurebump/internal/features"
	"github.com/3leaps/featurebump/internal/metrics"
	"github.com/3leaps/featurebump/internal/model"
	"github.com/3leaps/featurebump/pkg/update"
)

// ReleaseSource resolves a registry-release strategy.
type ReleaseSource interface {
	LatestVersion(ctx context.Context, repo string) (string, error)
}

// PackageSource resolves one dist-tag of a package-registry strategy.
type PackageSource interface {
	TagVersion(ctx context.Context, pkg, tag string) (string, error)
}

type Status string

const (
	StatusUpdated      Status = "updated"
	StatusWouldUpdate  Status = "would-update" // dry run
	StatusCurrent      Status = "current"      // candidate fetched, pin kept
	StatusUnavailable  Status = "unavailable"  // no candidate fetched
	StatusNoStrategy   Status = "no-strategy"
	StatusNoDescriptor Status = "no-descriptor"
	StatusNoDefault    Status = "no-default"
	StatusMalformed    Status = "malformed"
	StatusFailed       Status = "failed"
)

// Report is the outcome for one feature directory.
type Report struct {
	ID       string
	Status   Status
	Current  string
	Latest   string
	Decision update.Decision
	Reason   update.Reason
	Err      error
}

type Result struct {
	Reports []Report
	// Updated is true once any descriptor has been rewritten.
	Updated bool
}

// Changed returns the reports whose descriptor was (or in a dry run, would be)
// rewritten.
func (r Result) Changed() []Report {
	var out []Report
	for _, rep := range r.Reports {
		if rep.Status == StatusUpdated || rep.Status == StatusWouldUpdate {
			out = append(out, rep)
		}
	}
	return out
}

type Runner struct {
	Catalog  *catalog.Catalog
	Releases ReleaseSource
	Packages PackageSource

	FeaturesDir    string
	DescriptorName string // defaults to descriptor.FileName
	Only           []string
	DryRun         bool

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Run checks every feature directory under FeaturesDir. Only a failure to list
// FeaturesDir, or cancellation of ctx, is returned as an error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	ids, err := features.List(r.FeaturesDir)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, id := range ids {
		if !r.selected(id) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("run interrupted: %w", err)
		}

		rep := r.Check(ctx, id)
		r.Metrics.Feature(string(rep.Status))
		res.Reports = append(res.Reports, rep)
		if rep.Status == StatusUpdated {
			res.Updated = true
		}
	}

	r.Metrics.SetUpdated(res.Updated)
	return res, nil
}

// Check processes a single feature.
func (r *Runner) Check(ctx context.Context, id string) (rep Report) {
	rep.ID = id
	log := r.logger().With("feature", id)

	defer func() {
		if p := recover(); p != nil {
			rep.Status = StatusFailed
			rep.Err = fmt.Errorf("panic: %v", p)
			log.Error(fmt.Sprintf("Failed to check version for %s", id), "error", rep.Err)
		}
	}()

	strategy, ok := r.Catalog.Lookup(id)
	if !ok {
		log.Debug("No update strategy configured")
		rep.Status = StatusNoStrategy
		return rep
	}

	path := features.DescriptorPath(r.FeaturesDir, id, r.descriptorName())
	desc, err := descriptor.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug("No descriptor", "path", path)
		rep.Status = StatusNoDescriptor
		return rep
	case err != nil:
		log.Warn(fmt.Sprintf("Skipping %s: unreadable descriptor", id), "path", path, "error", err)
		rep.Status = StatusMalformed
		rep.Err = err
		return rep
	}

	current, ok := desc.DefaultVersion()
	if !ok {
		log.Info(fmt.Sprintf("Skipping %s: no default version option found.", id))
		rep.Status = StatusNoDefault
		return rep
	}
	rep.Current = current

	latest, found := r.latest(ctx, log, id, strategy)
	rep.Latest = latest
	rep.Decision, rep.Reason = update.Decide(current, latest, found)
	msg := update.DescribeDecision(id, current, latest, rep.Decision, rep.Reason)

	if rep.Decision == update.DecisionNoOp {
		rep.Status = StatusCurrent
		if !found {
			rep.Status = StatusUnavailable
		}
		log.Info(msg, "reason", rep.Reason)
		return rep
	}

	if r.DryRun {
		log.Info(msg, "dry_run", true)
		rep.Status = StatusWouldUpdate
		return rep
	}

	log.Info(msg)
	if err := desc.SetDefaultVersion(latest); err != nil {
		return r.failed(log, rep, err)
	}
	if err := desc.Save(); err != nil {
		return r.failed(log, rep, err)
	}
	rep.Status = StatusUpdated
	return rep
}

func (r *Runner) failed(log *slog.Logger, rep Report, err error) Report {
	log.Error(fmt.Sprintf("Failed to update %s", rep.ID), "error", err)
	rep.Status = StatusFailed
	rep.Err = err
	return rep
}

// latest fetches every candidate the strategy names and reduces them to the
// newest. Each source is fetched independently; found is false only when none
// succeeded.
func (r *Runner) latest(ctx context.Context, log *slog.Logger, id string, s model.Strategy) (string, bool) {
	var candidates []update.Candidate

	switch s.Kind {
	case model.KindRegistryRelease:
		v, err := r.Releases.LatestVersion(ctx, s.Repo)
		r.Metrics.Fetch(string(s.Kind), err)
		if err != nil {
			log.Error(fmt.Sprintf("Failed to check version for %s", id), "repo", s.Repo, "error", err)
			break
		}
		candidates = append(candidates, update.Candidate{Source: "release", Version: v})

	case model.KindPackageRegistry:
		for _, tag := range s.Tags() {
			v, err := r.Packages.TagVersion(ctx, s.Package, tag)
			r.Metrics.Fetch(string(s.Kind), err)
			if err != nil {
				log.Error(fmt.Sprintf("Failed to check version for %s", id), "package", s.Package, "tag", tag, "error", err)
				continue
			}
			candidates = append(candidates, update.Candidate{Source: tag, Version: v})
		}

	default:
		log.Error("Unsupported strategy kind", "kind", s.Kind)
	}

	best, ok := update.SelectBest(candidates, func(step update.Step) {
		c := step.Candidate
		if step.Pick == update.PickNewer {
			log.Info(fmt.Sprintf("%s %s: %s (newer than %s)", id, c.Source, c.Version, step.Previous), "pick", step.Pick)
			return
		}
		log.Info(fmt.Sprintf("%s %s: %s", id, c.Source, c.Version), "pick", step.Pick)
	})
	if !ok {
		return "", false
	}
	return best.Version, true
}

func (r *Runner) selected(id string) bool {
	return len(r.Only) == 0 || slices.Contains(r.Only, id)
}

func (r *Runner) descriptorName() string {
	if r.DescriptorName == "" {
		return descriptor.FileName
	}
	return r.DescriptorName
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
