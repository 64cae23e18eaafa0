// Package platform selects the release asset matching a platform
// priority list. Release asset naming is not standardized, so callers
// supply the (os, arch) token spellings they accept, most preferred
// first.
package platform

import (
	"strings"

	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
)

// Pair is one (os, arch) token combination to match against asset names.
type Pair struct {
	OS   string `yaml:"os"`
	Arch string `yaml:"arch"`
}

// archiveExtensions are the recognized packaged-asset suffixes. Bare
// binaries and checksum files are never selected.
var archiveExtensions = []string{".tar.gz", ".zip"}

// SelectAsset returns the first asset matching the highest-priority pair.
// Within a pair, an asset matches when its name contains both the os and
// arch tokens as substrings and ends with a recognized archive
// extension. Once any pair matches, lower-priority pairs are not
// considered. The second return is false when nothing matched.
func SelectAsset(assets []ghrelease.Asset, pairs []Pair) (ghrelease.Asset, bool) {
	for _, pair := range pairs {
		for _, a := range assets {
			if matches(a.Name, pair) {
				return a, true
			}
		}
	}
	return ghrelease.Asset{}, false
}

func matches(name string, pair Pair) bool {
	if !strings.Contains(name, pair.OS) || !strings.Contains(name, pair.Arch) {
		return false
	}
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// DefaultPairs returns the conventional token priority for an OS/arch,
// covering the common lowercase Go spellings first and the uname-style
// spellings (Darwin, aarch64, x86_64) second.
func DefaultPairs(goos, goarch string) []Pair {
	pairs := []Pair{{OS: goos, Arch: goarch}}
	unameOS := titleCase(goos)
	switch goarch {
	case "arm64":
		pairs = append(pairs, Pair{OS: unameOS, Arch: "aarch64"})
	case "amd64":
		pairs = append(pairs, Pair{OS: unameOS, Arch: "x86_64"})
	default:
		pairs = append(pairs, Pair{OS: unameOS, Arch: goarch})
	}
	return pairs
}

// titleCase uppercases the first letter, matching uname-style OS names.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
