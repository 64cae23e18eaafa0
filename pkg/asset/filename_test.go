package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFilename(t *testing.T) {
	tests := []struct {
		name     string
		template string
		tag      string
		os       string
		arch     string
		want     string
	}{
		{
			name:     "version strips tag prefix",
			template: "packr_${VERSION}_${OS}_${ARCH}.tar.gz",
			tag:      "v2.8.3",
			os:       "darwin", arch: "arm64",
			want: "packr_2.8.3_darwin_arm64.tar.gz",
		},
		{
			name:     "tag keeps original form",
			template: "${NAME}-${TAG}-${OS}.zip",
			tag:      "v2.8.3",
			os:       "Darwin", arch: "arm64",
			want: "packr-v2.8.3-Darwin.zip",
		},
		{
			name:     "name-prefixed tag",
			template: "${NAME}_${VERSION}_${OS}_${ARCH}.tar.gz",
			tag:      "packr-v3.0.5",
			os:       "linux", arch: "amd64",
			want: "packr_3.0.5_linux_amd64.tar.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewFilenameGenerator("packr", tt.tag, tt.template)
			got, err := gen.Generate(tt.os, tt.arch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateFilenameEmptyTemplate(t *testing.T) {
	gen := NewFilenameGenerator("packr", "v1.0.0", "")
	_, err := gen.Generate("darwin", "arm64")
	assert.Error(t, err)
}
