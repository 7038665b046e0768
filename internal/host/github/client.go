package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/3leaps/featurebump/internal/host"
	"github.com/3leaps/featurebump/internal/model"
)

const DefaultAPIBase = "https://api.github.com"

// ErrNoTag is returned when the latest release carries no tag name.
var ErrNoTag = errors.New("release has no tag")

func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("FEATUREBUMP_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// Releases resolves the latest release of a repository.
type Releases struct {
	Client  *host.Client
	APIBase string
	Token   string
}

func NewReleases(c *host.Client, apiBase, token string) *Releases {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	return &Releases{Client: c, APIBase: base, Token: token}
}

// LatestVersion returns the tag of {APIBase}/repos/{repo}/releases/latest with
// one leading "v" removed.
func (r *Releases) LatestVersion(ctx context.Context, repo string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", r.APIBase, repo)

	var rel model.Release
	if err := r.Client.GetJSON(ctx, endpoint, &rel, r.auth(endpoint)); err != nil {
		return "", err
	}
	if rel.TagName == "" {
		return "", fmt.Errorf("%s: %w", repo, ErrNoTag)
	}
	return strings.TrimPrefix(rel.TagName, "v"), nil
}

// githubHosts are the only hosts that receive the token.
var githubHosts = map[string]bool{
	"github.com":     true,
	"api.github.com": true,
}

func (r *Releases) auth(rawURL string) host.RequestOption {
	return func(req *http.Request) {
		if r.Token == "" {
			return
		}
		u, err := url.Parse(rawURL)
		if err != nil || !githubHosts[strings.ToLower(u.Hostname())] {
			return
		}
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
}
