// Package formula rewrites the version, url, and sha256 fields of a
// Homebrew formula file. The formula is treated as opaque text with
// three replaceable quoted assignments; every other byte, including
// comments and whitespace, is preserved exactly.
package formula

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names recognized by Rewrite.
const (
	FieldVersion = "version"
	FieldURL     = "url"
	FieldSHA256  = "sha256"
)

var fieldPatterns = map[string]*regexp.Regexp{
	FieldVersion: regexp.MustCompile(`(\bversion\s+")([^"]*)(")`),
	FieldURL:     regexp.MustCompile(`(\burl\s+")([^"]*)(")`),
	FieldSHA256:  regexp.MustCompile(`(\bsha256\s+")([^"]*)(")`),
}

// FieldNotFoundError indicates the document has no assignment for the
// named field. Rewrite is all-or-nothing, so nothing was changed.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("formula field %q not found", e.Field)
}

// Fields holds the three synchronized values of a formula.
type Fields struct {
	Version string
	URL     string
	SHA256  string
}

// Rewrite replaces the first occurrence of each of the version, url, and
// sha256 assignments with the given values and returns the new document.
// If any field is absent it fails with FieldNotFoundError and the
// original document must be kept; a partial rewrite is never returned.
func Rewrite(document string, fields Fields) (string, error) {
	out := document
	for _, f := range []struct{ name, value string }{
		{FieldVersion, fields.Version},
		{FieldURL, fields.URL},
		{FieldSHA256, fields.SHA256},
	} {
		var err error
		out, err = replaceFirst(out, f.name, f.value)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

// Extract reads the current values of the three fields, failing with
// FieldNotFoundError for the first absent one.
func Extract(document string) (Fields, error) {
	var fields Fields
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{FieldVersion, &fields.Version},
		{FieldURL, &fields.URL},
		{FieldSHA256, &fields.SHA256},
	} {
		m := fieldPatterns[f.name].FindStringSubmatch(document)
		if m == nil {
			return Fields{}, &FieldNotFoundError{Field: f.name}
		}
		*f.dst = m[2]
	}
	return fields, nil
}

// VersionFromTag derives the bare version from a release tag: a leading
// "v" is stripped, then a "{name}-v" prefix (some projects tag releases
// as e.g. packr-v3.0.5).
func VersionFromTag(tag, name string) string {
	version := strings.TrimPrefix(tag, "v")
	if name != "" {
		version = strings.TrimPrefix(version, name+"-v")
	}
	return version
}

func replaceFirst(document, field, value string) (string, error) {
	loc := fieldPatterns[field].FindStringSubmatchIndex(document)
	if loc == nil {
		return "", &FieldNotFoundError{Field: field}
	}
	// loc[4]:loc[5] is the quoted value submatch.
	return document[:loc[4]] + value + document[loc[5]:], nil
}
