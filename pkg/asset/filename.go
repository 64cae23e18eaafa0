// Package asset generates release asset filenames from templates.
package asset

import (
	"fmt"

	"github.com/brewtap-tools/tapsync/pkg/formula"
	"github.com/buildkite/interpolate"
)

// FilenameGenerator interpolates an asset filename template for a
// release. Templates support ${NAME}, ${VERSION} (tag without prefix),
// ${TAG} (original tag), ${OS} and ${ARCH}.
type FilenameGenerator struct {
	Name     string
	Tag      string
	Template string
}

// NewFilenameGenerator creates a generator for one formula and release.
func NewFilenameGenerator(name, tag, template string) *FilenameGenerator {
	return &FilenameGenerator{Name: name, Tag: tag, Template: template}
}

// Generate produces the asset filename for the given OS and arch tokens.
func (g *FilenameGenerator) Generate(osToken, archToken string) (string, error) {
	if g.Template == "" {
		return "", fmt.Errorf("asset template not defined")
	}
	env := interpolate.NewMapEnv(map[string]string{
		"NAME":    g.Name,
		"TAG":     g.Tag,
		"VERSION": formula.VersionFromTag(g.Tag, g.Name),
		"OS":      osToken,
		"ARCH":    archToken,
	})
	filename, err := interpolate.Interpolate(env, g.Template)
	if err != nil {
		return "", fmt.Errorf("failed to interpolate asset template: %w", err)
	}
	return filename, nil
}
