// Package sync keeps tap formulas in step with upstream GitHub
// releases: it resolves the latest release, picks the platform asset,
// downloads it to compute the checksum, and rewrites the formula's
// version, url and sha256 fields.
package sync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/asset"
	"github.com/brewtap-tools/tapsync/pkg/checksum"
	"github.com/brewtap-tools/tapsync/pkg/download"
	"github.com/brewtap-tools/tapsync/pkg/formula"
	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/brewtap-tools/tapsync/pkg/platform"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/pkg/errors"
)

// Synchronizer updates formula files from upstream releases. One
// invocation assumes exclusive write access to the tap directory;
// concurrent writers are out of scope.
type Synchronizer struct {
	Client     *ghrelease.Client
	Downloader *download.Downloader

	// TapDir is the root of the tap checkout. Formula paths from the
	// config are resolved against it.
	TapDir string

	// DryRun computes and logs the intended changes without writing
	// the formula file or committing.
	DryRun bool

	// Commit stages and commits the rewritten formula; Push also
	// pushes the commit.
	Commit bool
	Push   bool

	// OS and Arch select the platform asset. Default to the host.
	OS   string
	Arch string

	// RunGit overrides git invocation. Defaults to running git in the
	// tap directory.
	RunGit func(dir string, args ...string) error
}

// Result describes the outcome of synchronizing one formula.
type Result struct {
	Formula    string
	OldVersion string
	NewVersion string
	AssetName  string
	URL        string
	SHA256     string
	// Updated is false when the formula was already at the latest
	// version and nothing was changed.
	Updated bool
}

// Sync brings one formula up to date with its upstream's latest release.
func (s *Synchronizer) Sync(ctx context.Context, f tapconfig.Formula) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	owner, repo, err := ghrelease.SplitRepo(f.Repo)
	if err != nil {
		return nil, err
	}

	release, err := s.Client.LatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	version := formula.VersionFromTag(release.TagName, f.Name)
	log.Infof("%s: latest release is %s (version %s)", f.Name, release.TagName, version)

	formulaPath := filepath.Join(s.TapDir, f.Path())
	doc, err := os.ReadFile(formulaPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read formula file %s", formulaPath)
	}
	current, err := formula.Extract(string(doc))
	if err != nil {
		return nil, errors.Wrapf(err, "formula file %s", formulaPath)
	}

	result := &Result{
		Formula:    f.Name,
		OldVersion: current.Version,
		NewVersion: version,
	}
	if current.Version == version {
		log.Infof("%s: already at version %s, nothing to do", f.Name, version)
		return result, nil
	}

	selected, err := s.selectAsset(f, release)
	if err != nil {
		return nil, err
	}
	result.AssetName = selected.Name
	result.URL = selected.BrowserDownloadURL

	sha, err := s.fetchChecksum(ctx, selected)
	if err != nil {
		return nil, err
	}
	result.SHA256 = sha

	rewritten, err := formula.Rewrite(string(doc), formula.Fields{
		Version: version,
		URL:     result.URL,
		SHA256:  sha,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "formula file %s", formulaPath)
	}

	if s.DryRun {
		log.Infof("%s: dry run, would update %s -> %s", f.Name, current.Version, version)
		log.Infof("%s: url %s", f.Name, result.URL)
		log.Infof("%s: sha256 %s", f.Name, sha)
		result.Updated = true
		return result, nil
	}

	if err := os.WriteFile(formulaPath, []byte(rewritten), 0644); err != nil {
		return nil, errors.Wrapf(err, "failed to write formula file %s", formulaPath)
	}
	log.Infof("%s: updated %s -> %s", f.Name, current.Version, version)
	result.Updated = true

	if s.Commit {
		if err := s.commit(f, version); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// SyncAll synchronizes every formula in the config sequentially,
// stopping at the first failure.
func (s *Synchronizer) SyncAll(ctx context.Context, cfg *tapconfig.Config) ([]*Result, error) {
	results := make([]*Result, 0, len(cfg.Formulas))
	for _, f := range cfg.Formulas {
		res, err := s.Sync(ctx, f)
		if err != nil {
			return results, errors.Wrapf(err, "failed to sync %s", f.Name)
		}
		results = append(results, res)
	}
	return results, nil
}

// selectAsset picks the release asset for the formula, either by exact
// interpolated template name or by platform token scanning.
func (s *Synchronizer) selectAsset(f tapconfig.Formula, release ghrelease.Release) (ghrelease.Asset, error) {
	if f.AssetTemplate != "" {
		gen := asset.NewFilenameGenerator(f.Name, release.TagName, f.AssetTemplate)
		filename, err := gen.Generate(s.osToken(), s.archToken())
		if err != nil {
			return ghrelease.Asset{}, err
		}
		for _, a := range release.Assets {
			if a.Name == filename {
				return a, nil
			}
		}
		owner, repo, _ := ghrelease.SplitRepo(f.Repo)
		ref := ghrelease.ReleaseReference{Owner: owner, Repo: repo, Tag: release.TagName, AssetFilename: filename}
		return ghrelease.Asset{}, &ghrelease.AssetNotFoundError{Ref: ref, AssetNames: release.AssetNames()}
	}

	pairs := f.Platforms
	if len(pairs) == 0 {
		pairs = platform.DefaultPairs(s.osToken(), s.archToken())
	}
	selected, ok := platform.SelectAsset(release.Assets, pairs)
	if !ok {
		return ghrelease.Asset{}, fmt.Errorf("no asset of release %s matched platforms %v (assets: %v)",
			release.TagName, pairs, release.AssetNames())
	}
	return selected, nil
}

// fetchChecksum downloads the asset to a temporary directory and hashes
// it. The temporary copy is discarded; only the digest is kept.
func (s *Synchronizer) fetchChecksum(ctx context.Context, a ghrelease.Asset) (string, error) {
	tempDir, err := os.MkdirTemp("", "tapsync-checksum")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	assetPath := filepath.Join(tempDir, a.Name)
	log.Infof("downloading %s", a.Name)
	written, err := s.Downloader.DownloadFile(ctx, a, assetPath)
	if err != nil {
		return "", err
	}
	log.Debugf("downloaded %d bytes", written)

	return checksum.SHA256File(assetPath)
}

func (s *Synchronizer) commit(f tapconfig.Formula, version string) error {
	runGit := s.RunGit
	if runGit == nil {
		runGit = runGitCommand
	}
	message := fmt.Sprintf("%s: update to %s", f.Name, version)
	log.Infof("committing: %s", message)
	if err := runGit(s.TapDir, "add", f.Path()); err != nil {
		return errors.Wrap(err, "git add failed")
	}
	if err := runGit(s.TapDir, "commit", "-m", message); err != nil {
		return errors.Wrap(err, "git commit failed")
	}
	if s.Push {
		if err := runGit(s.TapDir, "push"); err != nil {
			return errors.Wrap(err, "git push failed")
		}
	}
	return nil
}

func (s *Synchronizer) osToken() string {
	if s.OS != "" {
		return s.OS
	}
	return runtime.GOOS
}

func (s *Synchronizer) archToken() string {
	if s.Arch != "" {
		return s.Arch
	}
	return runtime.GOARCH
}

func runGitCommand(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %v: %w: %s", args, err, out)
	}
	return nil
}
