package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/brewtap-tools/tapsync/pkg/download"
	"github.com/brewtap-tools/tapsync/pkg/formula"
	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/brewtap-tools/tapsync/pkg/platform"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assetContent = "fake darwin arm64 archive"

const oldFormula = `class Packr < Formula
  desc "Simple solution for bundling static assets"
  homepage "https://github.com/gobuffalo/packr"
  version "2.8.2"
  url "https://github.com/gobuffalo/packr/releases/download/v2.8.2/packr_2.8.2_darwin_arm64.tar.gz"
  sha256 "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
end
`

// newFixture starts a fake API server serving a latest release with one
// matching asset, and a tap directory containing the old formula file.
func newFixture(t *testing.T) (*Synchronizer, string) {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/repos/gobuffalo/packr/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"tag_name": "v2.8.3",
			"assets": [
				{"id": 1, "name": "checksums.txt", "url": "%[1]s/assets/1", "browser_download_url": "https://github.com/gobuffalo/packr/releases/download/v2.8.3/checksums.txt"},
				{"id": 2, "name": "packr_2.8.3_darwin_arm64.tar.gz", "url": "%[1]s/assets/2", "browser_download_url": "https://github.com/gobuffalo/packr/releases/download/v2.8.3/packr_2.8.3_darwin_arm64.tar.gz"}
			]
		}`, server.URL)
	})
	mux.HandleFunc("/assets/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, assetContent)
	})

	tapDir := t.TempDir()
	formulaPath := filepath.Join(tapDir, "Formula", "packr.rb")
	require.NoError(t, os.MkdirAll(filepath.Dir(formulaPath), 0755))
	require.NoError(t, os.WriteFile(formulaPath, []byte(oldFormula), 0644))

	dl := download.New("")
	dl.Wait = func(int) {}
	return &Synchronizer{
		Client:     ghrelease.NewClient("", ghrelease.WithBaseURL(server.URL+"/")),
		Downloader: dl,
		TapDir:     tapDir,
		OS:         "darwin",
		Arch:       "arm64",
	}, formulaPath
}

func packrDecl() tapconfig.Formula {
	return tapconfig.Formula{
		Name: "packr",
		Repo: "gobuffalo/packr",
		Platforms: []platform.Pair{
			{OS: "darwin", Arch: "arm64"},
			{OS: "Darwin", Arch: "aarch64"},
		},
	}
}

func wantSHA256() string {
	sum := sha256.Sum256([]byte(assetContent))
	return hex.EncodeToString(sum[:])
}

func TestSyncUpdatesFormula(t *testing.T) {
	syncer, formulaPath := newFixture(t)

	res, err := syncer.Sync(context.Background(), packrDecl())
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "2.8.2", res.OldVersion)
	assert.Equal(t, "2.8.3", res.NewVersion)
	assert.Equal(t, "packr_2.8.3_darwin_arm64.tar.gz", res.AssetName)

	doc, err := os.ReadFile(formulaPath)
	require.NoError(t, err)
	fields, err := formula.Extract(string(doc))
	require.NoError(t, err)
	assert.Equal(t, "2.8.3", fields.Version)
	assert.Equal(t, "https://github.com/gobuffalo/packr/releases/download/v2.8.3/packr_2.8.3_darwin_arm64.tar.gz", fields.URL)
	assert.Equal(t, wantSHA256(), fields.SHA256)

	// Surrounding text is preserved.
	assert.Contains(t, string(doc), `desc "Simple solution for bundling static assets"`)
}

func TestSyncNoOpWhenCurrent(t *testing.T) {
	syncer, formulaPath := newFixture(t)

	res, err := syncer.Sync(context.Background(), packrDecl())
	require.NoError(t, err)
	require.True(t, res.Updated)

	updated, err := os.ReadFile(formulaPath)
	require.NoError(t, err)

	res, err = syncer.Sync(context.Background(), packrDecl())
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, "2.8.3", res.OldVersion)

	after, err := os.ReadFile(formulaPath)
	require.NoError(t, err)
	assert.Equal(t, string(updated), string(after), "no-op run must not touch the file")
}

func TestSyncDryRun(t *testing.T) {
	syncer, formulaPath := newFixture(t)
	syncer.DryRun = true

	res, err := syncer.Sync(context.Background(), packrDecl())
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, wantSHA256(), res.SHA256)

	doc, err := os.ReadFile(formulaPath)
	require.NoError(t, err)
	assert.Equal(t, oldFormula, string(doc), "dry run must not write the formula file")
}

func TestSyncCommitAndPush(t *testing.T) {
	syncer, _ := newFixture(t)
	syncer.Commit = true
	syncer.Push = true

	var gitCalls [][]string
	syncer.RunGit = func(dir string, args ...string) error {
		assert.Equal(t, syncer.TapDir, dir)
		gitCalls = append(gitCalls, args)
		return nil
	}

	_, err := syncer.Sync(context.Background(), packrDecl())
	require.NoError(t, err)

	require.Len(t, gitCalls, 3)
	assert.Equal(t, []string{"add", filepath.Join("Formula", "packr.rb")}, gitCalls[0])
	assert.Equal(t, []string{"commit", "-m", "packr: update to 2.8.3"}, gitCalls[1])
	assert.Equal(t, []string{"push"}, gitCalls[2])
}

func TestSyncWithAssetTemplate(t *testing.T) {
	syncer, _ := newFixture(t)

	decl := tapconfig.Formula{
		Name:          "packr",
		Repo:          "gobuffalo/packr",
		AssetTemplate: "packr_${VERSION}_${OS}_${ARCH}.tar.gz",
	}
	res, err := syncer.Sync(context.Background(), decl)
	require.NoError(t, err)
	assert.Equal(t, "packr_2.8.3_darwin_arm64.tar.gz", res.AssetName)
}

func TestSyncAssetTemplateMismatch(t *testing.T) {
	syncer, _ := newFixture(t)

	decl := tapconfig.Formula{
		Name:          "packr",
		Repo:          "gobuffalo/packr",
		AssetTemplate: "packr-${VERSION}.dmg",
	}
	_, err := syncer.Sync(context.Background(), decl)
	var notFound *ghrelease.AssetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"checksums.txt", "packr_2.8.3_darwin_arm64.tar.gz"}, notFound.AssetNames)
}

func TestSyncNoMatchingPlatform(t *testing.T) {
	syncer, _ := newFixture(t)

	decl := tapconfig.Formula{
		Name:      "packr",
		Repo:      "gobuffalo/packr",
		Platforms: []platform.Pair{{OS: "windows", Arch: "amd64"}},
	}
	_, err := syncer.Sync(context.Background(), decl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no asset")
}

func TestSyncAll(t *testing.T) {
	syncer, _ := newFixture(t)

	cfg := &tapconfig.Config{Formulas: []tapconfig.Formula{packrDecl()}}
	results, err := syncer.SyncAll(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Updated)
}
