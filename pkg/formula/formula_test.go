package formula

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packrFormula = `# typed: false
# frozen_string_literal: true

class Packr < Formula
  desc "Simple solution for bundling static assets"
  homepage "https://github.com/gobuffalo/packr"
  version "2.8.2"
  url "https://github.com/gobuffalo/packr/releases/download/v2.8.2/packr_2.8.2_darwin_arm64.tar.gz"
  sha256 "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

  def install
    bin.install "packr"
  end

  test do
    system "#{bin}/packr", "version"
  end
end
`

func TestRewrite(t *testing.T) {
	fields := Fields{
		Version: "2.8.3",
		URL:     "https://github.com/gobuffalo/packr/releases/download/v2.8.3/packr_2.8.3_darwin_arm64.tar.gz",
		SHA256:  "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}

	out, err := Rewrite(packrFormula, fields)
	require.NoError(t, err)

	got, err := Extract(out)
	require.NoError(t, err)
	if diff := cmp.Diff(fields, got); diff != "" {
		t.Errorf("rewritten fields mismatch (-want +got):\n%s", diff)
	}

	// Everything except the three field lines is untouched.
	assert.Contains(t, out, `desc "Simple solution for bundling static assets"`)
	assert.Contains(t, out, `homepage "https://github.com/gobuffalo/packr"`)
	assert.Contains(t, out, "# frozen_string_literal: true")
	assert.Contains(t, out, `bin.install "packr"`)
	assert.NotContains(t, out, "2.8.2")
}

func TestRewriteIsIdempotent(t *testing.T) {
	fields := Fields{
		Version: "2.8.3",
		URL:     "https://example.com/a.tar.gz",
		SHA256:  "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc",
	}
	once, err := Rewrite(packrFormula, fields)
	require.NoError(t, err)
	twice, err := Rewrite(once, fields)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRewriteReplacesOnlyFirstOccurrence(t *testing.T) {
	doc := packrFormula + `
# mirror block, must stay untouched
#   url "https://mirror.example/packr_2.8.2.tar.gz"
#   sha256 "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"
`
	out, err := Rewrite(doc, Fields{Version: "3.0.0", URL: "https://example.com/b.zip", SHA256: "ee"})
	require.NoError(t, err)
	assert.Contains(t, out, "https://mirror.example/packr_2.8.2.tar.gz")
	assert.Contains(t, out, "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd")
}

func TestRewriteMissingField(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		wantField string
	}{
		{
			name:      "no version",
			document:  "url \"x\"\nsha256 \"y\"\n",
			wantField: "version",
		},
		{
			name:      "no url",
			document:  "version \"1.0\"\nsha256 \"y\"\n",
			wantField: "url",
		},
		{
			name:      "no sha256",
			document:  "version \"1.0\"\nurl \"x\"\n",
			wantField: "sha256",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rewrite(tt.document, Fields{Version: "2", URL: "u", SHA256: "s"})
			var notFound *FieldNotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, tt.wantField, notFound.Field)
		})
	}
}

func TestExtract(t *testing.T) {
	fields, err := Extract(packrFormula)
	require.NoError(t, err)
	assert.Equal(t, "2.8.2", fields.Version)
	assert.Equal(t, "https://github.com/gobuffalo/packr/releases/download/v2.8.2/packr_2.8.2_darwin_arm64.tar.gz", fields.URL)
}

func TestVersionFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		name string
		want string
	}{
		{tag: "v3.0.5", name: "packr", want: "3.0.5"},
		{tag: "v3.0.5", name: "anything", want: "3.0.5"},
		{tag: "packr-v3.0.5", name: "packr", want: "3.0.5"},
		{tag: "3.0.5", name: "packr", want: "3.0.5"},
		{tag: "packr-v3.0.5", name: "", want: "packr-v3.0.5"},
		{tag: "other-v3.0.5", name: "packr", want: "other-v3.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VersionFromTag(tt.tag, tt.name))
		})
	}
}
