package model

// Release is the subset of the GitHub release payload that featurebump uses.
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

// PackageManifest is the subset of an npm registry dist-tag document that
// featurebump uses.
type PackageManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// StrategyKind selects where a feature's latest version comes from.
type StrategyKind string

const (
	KindRegistryRelease StrategyKind = "registry-release" // GitHub releases/latest
	KindPackageRegistry StrategyKind = "package-registry" // npm dist-tags
)

// DefaultDistTag is queried when a package-registry strategy names no tags.
const DefaultDistTag = "latest"

// Strategy is the static update configuration for one feature.
// Schema: internal/catalog/strategies.schema.json
type Strategy struct {
	Kind     StrategyKind `json:"kind" yaml:"kind"`
	Repo     string       `json:"repo,omitempty" yaml:"repo,omitempty"`         // registry-release: owner/name
	Package  string       `json:"package,omitempty" yaml:"package,omitempty"`   // package-registry
	DistTags []string     `json:"distTags,omitempty" yaml:"distTags,omitempty"` // package-registry; nil = latest
}

// Tags returns the dist-tags to query, in order.
func (s Strategy) Tags() []string {
	if len(s.DistTags) == 0 {
		return []string{DefaultDistTag}
	}
	out := make([]string, len(s.DistTags))
	copy(out, s.DistTags)
	return out
}

// Source names the upstream for display: the repo or the package.
func (s Strategy) Source() string {
	if s.Kind == KindRegistryRelease {
		return s.Repo
	}
	return s.Package
}
