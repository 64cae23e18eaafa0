package datasource

import (
	"context"
	"strings"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/brewtap-tools/tapsync/pkg/platform"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/pkg/errors"
)

// candidatePairs are the platform token spellings probed against a
// repository's release assets, most common first.
var candidatePairs = []platform.Pair{
	{OS: "darwin", Arch: "arm64"},
	{OS: "darwin", Arch: "amd64"},
	{OS: "Darwin", Arch: "aarch64"},
	{OS: "Darwin", Arch: "x86_64"},
	{OS: "macos", Arch: "arm64"},
	{OS: "linux", Arch: "amd64"},
	{OS: "linux", Arch: "arm64"},
	{OS: "Linux", Arch: "x86_64"},
}

// GitHubAdapter derives a formula declaration by inspecting the
// repository's latest release assets.
type GitHubAdapter struct {
	client       *ghrelease.Client
	repo         string
	nameOverride string
}

// NewGitHubAdapter creates an adapter for the "owner/name" repository.
func NewGitHubAdapter(client *ghrelease.Client, repo, nameOverride string) *GitHubAdapter {
	return &GitHubAdapter{client: client, repo: repo, nameOverride: nameOverride}
}

// GenerateFormula implements SourceAdapter. It records every candidate
// platform pair that matches at least one asset of the latest release,
// so later syncs can select per-platform without a template.
func (a *GitHubAdapter) GenerateFormula(ctx context.Context) (*tapconfig.Formula, error) {
	owner, repo, err := ghrelease.SplitRepo(a.repo)
	if err != nil {
		return nil, err
	}
	release, err := a.client.LatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect releases of %s", a.repo)
	}
	log.Infof("inspecting release %s of %s (%d assets)", release.TagName, a.repo, len(release.Assets))

	var pairs []platform.Pair
	for _, pair := range candidatePairs {
		if _, ok := platform.SelectAsset(release.Assets, []platform.Pair{pair}); ok {
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) == 0 {
		return nil, errors.Errorf("no recognizable platform assets in release %s of %s (assets: %s)",
			release.TagName, a.repo, strings.Join(release.AssetNames(), ", "))
	}

	name := a.nameOverride
	if name == "" {
		name = repo
	}
	return &tapconfig.Formula{
		Name:      name,
		Repo:      a.repo,
		Platforms: pairs,
	}, nil
}
