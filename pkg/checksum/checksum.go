// Package checksum computes and verifies SHA-256 digests of release
// artifacts. Digests are computed by streaming, so arbitrarily large
// assets never need to be buffered in memory.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// MismatchError indicates a downloaded artifact does not hash to the
// expected digest.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// SHA256 streams r and returns the hex-encoded SHA-256 digest together
// with the number of bytes read.
func SHA256(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, errors.Wrap(err, "failed to hash stream")
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// SHA256File returns the hex-encoded SHA-256 digest of a file.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to open file")
	}
	defer f.Close()
	sum, _, err := SHA256(f)
	return sum, err
}

// VerifyFile checks that the file at path hashes to expected. The
// comparison is case-insensitive; hex digests appear in both cases in
// the wild.
func VerifyFile(path, expected string) error {
	actual, err := SHA256File(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return &MismatchError{Expected: strings.ToLower(expected), Actual: actual}
	}
	return nil
}
