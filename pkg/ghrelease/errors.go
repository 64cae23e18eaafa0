package ghrelease

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrAuthenticationFailed indicates the API rejected the supplied
	// credential (HTTP 401/403). It never triggers the release-listing
	// fallback.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRepositoryAccessDenied indicates the repository existence check
	// returned not-found, which for private repositories usually means a
	// token/permission problem rather than a missing tag.
	ErrRepositoryAccessDenied = errors.New("repository not found or access denied")

	// ErrReleaseNotFound indicates no release matched the requested tag,
	// after both the direct tag lookup and the release-listing fallback.
	ErrReleaseNotFound = errors.New("release not found")
)

// AssetNotFoundError indicates the release exists but carries no asset
// with the requested filename. AssetNames holds every asset name from the
// fetched release metadata, in original order, for diagnostics.
type AssetNotFoundError struct {
	Ref        ReleaseReference
	AssetNames []string
}

func (e *AssetNotFoundError) Error() string {
	if len(e.AssetNames) == 0 {
		return fmt.Sprintf("asset %q not found in release %s (release has no assets)", e.Ref.AssetFilename, e.Ref)
	}
	return fmt.Sprintf("asset %q not found in release %s, available assets: %s",
		e.Ref.AssetFilename, e.Ref, strings.Join(e.AssetNames, ", "))
}

// RemediationHint returns actionable guidance for credential and access
// failures, or an empty string when the error is not credential-related.
func RemediationHint(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrRepositoryAccessDenied):
		return "check token scopes and expiry, or re-authenticate with: gh auth login"
	default:
		return ""
	}
}
