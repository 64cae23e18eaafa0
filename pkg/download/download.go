// Package download materializes release assets on disk. The primary
// transport is a single authenticated streaming request against the
// asset API resource; transport-level failures fall back to a bounded
// retry sequence. Failed downloads never leave a partial artifact at the
// destination path.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/pkg/errors"
)

// ErrDownloadFailed indicates the asset content could not be fetched
// after the primary attempt and the fallback retries.
var ErrDownloadFailed = errors.New("download failed")

// fallbackRetries is the fixed size of the fallback attempt sequence.
const fallbackRetries = 3

// Downloader fetches asset content with the credential it was
// constructed with. The zero value is usable for public assets.
type Downloader struct {
	// Client is the HTTP client used for all requests. Defaults to a
	// client with a 5 minute timeout.
	Client *http.Client

	// Token is the bearer credential, added to requests when non-empty.
	Token string

	// Wait is called between fallback attempts. Defaults to a linear
	// time.Sleep; tests replace it to run instantly.
	Wait func(attempt int)
}

// New creates a Downloader carrying the given credential.
func New(token string) *Downloader {
	return &Downloader{Token: token}
}

// DownloadFile fetches the asset into destPath and returns the number of
// bytes written. The content is streamed to a temporary file in the
// destination directory and renamed into place only on success, so
// destPath never contains a truncated artifact.
func (d *Downloader) DownloadFile(ctx context.Context, asset ghrelease.Asset, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, errors.Wrap(err, "failed to create destination directory")
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return 0, errors.Wrap(err, "failed to create temporary file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	written, err := d.downloadTo(ctx, asset, tmpFile)
	if err != nil {
		return 0, err
	}
	if err := tmpFile.Close(); err != nil {
		return 0, errors.Wrap(err, "failed to close temporary file")
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, errors.Wrap(err, "failed to move downloaded file")
	}
	return written, nil
}

// Download streams the asset content into w. When w supports seeking it
// is rewound and truncated between fallback attempts; otherwise a failed
// attempt may leave partial bytes in w, which is why DownloadFile is the
// usual entry point.
func (d *Downloader) Download(ctx context.Context, asset ghrelease.Asset, w io.Writer) (int64, error) {
	ws, ok := w.(io.WriteSeeker)
	if !ok {
		return d.fetchOnceOrFallback(ctx, asset, w, nil)
	}
	rewind := func() error {
		if _, err := ws.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if t, ok := w.(interface{ Truncate(int64) error }); ok {
			return t.Truncate(0)
		}
		return nil
	}
	return d.fetchOnceOrFallback(ctx, asset, w, rewind)
}

func (d *Downloader) downloadTo(ctx context.Context, asset ghrelease.Asset, f *os.File) (int64, error) {
	rewind := func() error {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		return f.Truncate(0)
	}
	return d.fetchOnceOrFallback(ctx, asset, f, rewind)
}

// fetchOnceOrFallback performs the primary attempt, then on a
// transport-level failure runs the fallback sequence of exactly
// fallbackRetries attempts. Authentication and not-found failures
// propagate immediately and never trigger the fallback.
func (d *Downloader) fetchOnceOrFallback(ctx context.Context, asset ghrelease.Asset, w io.Writer, rewind func() error) (int64, error) {
	written, err := d.fetch(ctx, asset, w)
	if err == nil {
		return written, nil
	}
	if !retryable(err) {
		return 0, err
	}

	log.WithError(err).Warnf("primary download of %s failed, retrying", asset.Name)
	wait := d.Wait
	if wait == nil {
		wait = func(attempt int) { time.Sleep(time.Duration(attempt) * time.Second) }
	}

	lastErr := err
	for attempt := 1; attempt <= fallbackRetries; attempt++ {
		wait(attempt)
		if rewind != nil {
			if err := rewind(); err != nil {
				return 0, errors.Wrap(err, "failed to reset destination")
			}
		}
		written, err = d.fetch(ctx, asset, w)
		if err == nil {
			return written, nil
		}
		if !retryable(err) {
			return 0, err
		}
		log.WithError(err).Debugf("fallback attempt %d/%d failed", attempt, fallbackRetries)
		lastErr = err
	}
	return 0, errors.Wrapf(ErrDownloadFailed, "after %d fallback attempts: %v", fallbackRetries, lastErr)
}

// fetch performs one streaming request for the asset content.
func (d *Downloader) fetch(ctx context.Context, asset ghrelease.Asset, w io.Writer) (int64, error) {
	url := asset.APIURL
	if url == "" {
		url = asset.BrowserDownloadURL
	}
	if url == "" {
		return 0, errors.Wrap(ErrDownloadFailed, "asset has no download URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/octet-stream")
	if d.Token != "" {
		// Go's HTTP client drops the Authorization header when the
		// asset API redirects to external blob storage, which is what
		// the storage backend requires.
		req.Header.Set("Authorization", "Bearer "+d.Token)
	}

	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, &transportError{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return 0, errors.Wrapf(ghrelease.ErrAuthenticationFailed, "downloading %s", asset.Name)
	case resp.StatusCode >= 500:
		return 0, &transportError{err: fmt.Errorf("server error: %s", resp.Status)}
	default:
		return 0, errors.Wrapf(ErrDownloadFailed, "unexpected status %s for %s", resp.Status, asset.Name)
	}

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, &transportError{err: errors.Wrap(err, "failed to read response body")}
	}
	if written == 0 {
		return 0, &transportError{err: errors.New("no content downloaded")}
	}
	return written, nil
}

// transportError marks failures eligible for the fallback sequence.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}
