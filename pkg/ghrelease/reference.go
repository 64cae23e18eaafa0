package ghrelease

import (
	"fmt"
	"net/url"
	"strings"
)

// ReleaseReference identifies one downloadable release artifact.
type ReleaseReference struct {
	Owner         string
	Repo          string
	Tag           string
	AssetFilename string
}

// String returns the reference in owner/repo@tag form.
func (r ReleaseReference) String() string {
	return fmt.Sprintf("%s/%s@%s", r.Owner, r.Repo, r.Tag)
}

// InvalidReferenceError indicates malformed reference input. It is
// returned before any network call is attempted.
type InvalidReferenceError struct {
	Input  string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid release reference %q: %s", e.Input, e.Reason)
}

// NewReference builds a validated ReleaseReference from its parts.
func NewReference(owner, repo, tag, assetFilename string) (ReleaseReference, error) {
	ref := ReleaseReference{
		Owner:         strings.TrimSpace(owner),
		Repo:          strings.TrimSpace(repo),
		Tag:           strings.TrimSpace(tag),
		AssetFilename: strings.TrimSpace(assetFilename),
	}
	if err := ref.validate(); err != nil {
		return ReleaseReference{}, err
	}
	return ref, nil
}

// ParseDownloadURL parses a release download URL of the form
// https://github.com/{owner}/{repo}/releases/download/{tag}/{filename}
// into a ReleaseReference.
func ParseDownloadURL(rawURL string) (ReleaseReference, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ReleaseReference{}, &InvalidReferenceError{Input: rawURL, Reason: err.Error()}
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// owner/repo/releases/download/tag/filename
	if len(parts) < 6 || parts[2] != "releases" || parts[3] != "download" {
		return ReleaseReference{}, &InvalidReferenceError{
			Input:  rawURL,
			Reason: "expected .../{owner}/{repo}/releases/download/{tag}/{filename}",
		}
	}
	ref := ReleaseReference{
		Owner: parts[0],
		Repo:  parts[1],
		// Tags may contain slashes (e.g. "release/v1.2.3").
		Tag:           strings.Join(parts[4:len(parts)-1], "/"),
		AssetFilename: parts[len(parts)-1],
	}
	if err := ref.validate(); err != nil {
		return ReleaseReference{}, err
	}
	return ref, nil
}

// SplitRepo splits an "owner/name" repository string.
func SplitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &InvalidReferenceError{Input: repo, Reason: "expected owner/name"}
	}
	return parts[0], parts[1], nil
}

func (r ReleaseReference) validate() error {
	for _, f := range []struct{ name, value string }{
		{"owner", r.Owner},
		{"repo", r.Repo},
		{"tag", r.Tag},
		{"asset filename", r.AssetFilename},
	} {
		if f.value == "" {
			return &InvalidReferenceError{Input: r.String(), Reason: f.name + " must not be empty"}
		}
	}
	return nil
}
