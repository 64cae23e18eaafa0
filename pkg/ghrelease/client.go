package ghrelease

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/apex/log"
	"github.com/google/go-github/v60/github"
	"github.com/pkg/errors"
)

// Asset describes one downloadable artifact attached to a release.
type Asset struct {
	Name string
	ID   int64
	// BrowserDownloadURL is the public download URL used in formula files.
	BrowserDownloadURL string
	// APIURL is the asset API resource, used for authenticated downloads.
	APIURL string
}

// Release is the metadata of one release, fetched fresh per invocation.
type Release struct {
	TagName    string
	Name       string
	Prerelease bool
	Assets     []Asset
}

// AssetNames returns the asset names in original order.
func (r Release) AssetNames() []string {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.Name
	}
	return names
}

// Client resolves releases and assets against the GitHub API. The
// credential is injected at construction; the client never reads the
// environment itself.
type Client struct {
	gh    *github.Client
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint. Used for
// GitHub Enterprise and in tests. The URL must end with a slash to be
// accepted by the underlying client; one is appended if missing.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		if u, err := url.Parse(raw); err == nil {
			c.gh.BaseURL = u
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		gh := github.NewClient(hc)
		gh.BaseURL = c.gh.BaseURL
		if c.token != "" {
			gh = gh.WithAuthToken(c.token)
		}
		c.gh = gh
	}
}

// NewClient creates a release API client. An empty token yields an
// unauthenticated client, which works for public repositories only.
func NewClient(token string, opts ...Option) *Client {
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	c := &Client{gh: gh, token: token}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the credential the client was constructed with.
func (c *Client) Token() string {
	return c.token
}

// CheckAccess verifies the repository is reachable with the current
// credential. A not-found here is reported as access denied rather than
// a missing release, since for private repositories GitHub answers 404
// to unauthorized requests.
func (c *Client) CheckAccess(ctx context.Context, owner, repo string) error {
	_, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err == nil {
		return nil
	}
	switch status(resp) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(ErrAuthenticationFailed, "checking access to %s/%s", owner, repo)
	case http.StatusNotFound:
		return errors.Wrapf(ErrRepositoryAccessDenied, "%s/%s", owner, repo)
	}
	return errors.Wrapf(err, "failed to check access to %s/%s", owner, repo)
}

// GetReleaseByTag fetches the release metadata for a tag. If the tag
// lookup answers not-found, it falls back to listing all releases and
// scanning for a matching tag name. Authentication failures never
// trigger the fallback.
func (c *Client) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (Release, error) {
	rel, resp, err := c.gh.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	if err == nil {
		return fromGitHubRelease(rel), nil
	}
	switch status(resp) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Release{}, errors.Wrapf(ErrAuthenticationFailed, "fetching release %s/%s@%s", owner, repo, tag)
	case http.StatusNotFound:
		log.Debugf("tag lookup for %s returned not found, listing all releases", tag)
		return c.findReleaseByListing(ctx, owner, repo, tag)
	}
	// A generic API failure is not retried against the listing
	// endpoint; guessing would mask the real error.
	return Release{}, errors.Wrapf(err, "failed to fetch release %s/%s@%s", owner, repo, tag)
}

// findReleaseByListing scans every release of the repository for a tag
// match. Draft releases are only visible to tokens with push access,
// which is exactly why the tag endpoint can miss them.
func (c *Client) findReleaseByListing(ctx context.Context, owner, repo, tag string) (Release, error) {
	opt := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opt)
		if err != nil {
			switch status(resp) {
			case http.StatusUnauthorized, http.StatusForbidden:
				return Release{}, errors.Wrapf(ErrAuthenticationFailed, "listing releases for %s/%s", owner, repo)
			}
			return Release{}, errors.Wrapf(err, "failed to list releases for %s/%s", owner, repo)
		}
		for _, rel := range releases {
			if rel.GetTagName() == tag {
				return fromGitHubRelease(rel), nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return Release{}, errors.Wrapf(ErrReleaseNotFound, "%s/%s@%s", owner, repo, tag)
}

// LatestRelease fetches the repository's latest published release.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (Release, error) {
	rel, resp, err := c.gh.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		switch status(resp) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return Release{}, errors.Wrapf(ErrAuthenticationFailed, "fetching latest release of %s/%s", owner, repo)
		case http.StatusNotFound:
			return Release{}, errors.Wrapf(ErrReleaseNotFound, "%s/%s has no published releases", owner, repo)
		}
		return Release{}, errors.Wrapf(err, "failed to fetch latest release of %s/%s", owner, repo)
	}
	return fromGitHubRelease(rel), nil
}

// ResolveAsset validates repository access, resolves the referenced
// release, and returns the asset whose name exactly matches the
// reference's filename.
func (c *Client) ResolveAsset(ctx context.Context, ref ReleaseReference) (Asset, error) {
	if err := ref.validate(); err != nil {
		return Asset{}, err
	}
	if err := c.CheckAccess(ctx, ref.Owner, ref.Repo); err != nil {
		return Asset{}, err
	}
	release, err := c.GetReleaseByTag(ctx, ref.Owner, ref.Repo, ref.Tag)
	if err != nil {
		return Asset{}, err
	}
	for _, a := range release.Assets {
		if a.Name == ref.AssetFilename {
			log.Debugf("resolved asset %s (id %d)", a.Name, a.ID)
			return a, nil
		}
	}
	return Asset{}, &AssetNotFoundError{Ref: ref, AssetNames: release.AssetNames()}
}

func fromGitHubRelease(rel *github.RepositoryRelease) Release {
	r := Release{
		TagName:    rel.GetTagName(),
		Name:       rel.GetName(),
		Prerelease: rel.GetPrerelease(),
	}
	for _, a := range rel.Assets {
		r.Assets = append(r.Assets, Asset{
			Name:               a.GetName(),
			ID:                 a.GetID(),
			BrowserDownloadURL: a.GetBrowserDownloadURL(),
			APIURL:             a.GetURL(),
		})
	}
	return r
}

func status(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
