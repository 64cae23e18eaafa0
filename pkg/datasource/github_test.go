package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/brewtap-tools/tapsync/pkg/platform"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubAdapter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/gobuffalo/packr/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"tag_name": "v2.8.3",
			"assets": [
				{"id": 1, "name": "packr_2.8.3_darwin_arm64.tar.gz"},
				{"id": 2, "name": "packr_2.8.3_linux_amd64.tar.gz"},
				{"id": 3, "name": "checksums.txt"}
			]
		}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := ghrelease.NewClient("", ghrelease.WithBaseURL(server.URL+"/"))
	adapter := NewGitHubAdapter(client, "gobuffalo/packr", "")

	f, err := adapter.GenerateFormula(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "packr", f.Name)
	assert.Equal(t, "gobuffalo/packr", f.Repo)
	assert.Empty(t, f.AssetTemplate)

	want := []platform.Pair{
		{OS: "darwin", Arch: "arm64"},
		{OS: "linux", Arch: "amd64"},
	}
	if diff := cmp.Diff(want, f.Platforms); diff != "" {
		t.Errorf("platform pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestGitHubAdapterNoRecognizableAssets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/srcball/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name": "v1.0.0", "assets": [{"id": 1, "name": "source.tar.bz2"}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := ghrelease.NewClient("", ghrelease.WithBaseURL(server.URL+"/"))
	adapter := NewGitHubAdapter(client, "acme/srcball", "")

	_, err := adapter.GenerateFormula(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.tar.bz2")
}
