// Package npm resolves dist-tag versions from an npm-compatible registry.
package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3leaps/featurebump/internal/host"
	"github.com/3leaps/featurebump/internal/model"
)

const DefaultRegistry = "https://registry.npmjs.org"

// ErrNoVersion is returned when a dist-tag document has no version field.
var ErrNoVersion = errors.New("dist-tag has no version")

type Registry struct {
	Client *host.Client
	Base   string
}

func NewRegistry(c *host.Client, base string) *Registry {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultRegistry
	}
	return &Registry{Client: c, Base: base}
}

// TagVersion returns the version field of {Base}/{pkg}/{tag}. Scoped package
// names are used as-is ("@scope/name").
func (r *Registry) TagVersion(ctx context.Context, pkg, tag string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", r.Base, pkg, tag)

	var m model.PackageManifest
	if err := r.Client.GetJSON(ctx, url, &m); err != nil {
		return "", err
	}
	if m.Version == "" {
		return "", fmt.Errorf("%s@%s: %w", pkg, tag, ErrNoVersion)
	}
	return m.Version, nil
}
