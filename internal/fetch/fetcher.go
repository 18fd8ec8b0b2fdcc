// Package fetch retrieves remote files to local storage, streaming response
// bodies to disk. Redirects are followed for exactly one hop: the archive host
// answers source-archive requests with a single 302 to its CDN, and that is
// the only indirection this installer tolerates.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DownloadError reports a failed retrieval, carrying the requested URL and
// the underlying cause.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string { return fmt.Sprintf("download %s: %v", e.URL, e.Err) }
func (e *DownloadError) Unwrap() error { return e.Err }

// Fetcher downloads files over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client. Its CheckRedirect policy is
// replaced: the Fetcher handles redirects itself.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// New creates a Fetcher with a 60s default timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: 60 * time.Second},
		userAgent: "fcmcp/dev",
	}
	for _, opt := range opts {
		opt(f)
	}
	// Redirects are followed manually so the one-hop limit is enforced.
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return f
}

// Fetch downloads url into destDir under the given name and returns the
// file's path.
func (f *Fetcher) Fetch(ctx context.Context, url, destDir, name string) (string, error) {
	dest := filepath.Join(destDir, name)
	if err := f.Download(ctx, url, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Download retrieves url into destPath. A single 3xx redirect is re-requested
// at its Location target; a second redirect fails.
func (f *Fetcher) Download(ctx context.Context, url, destPath string) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}

	if isRedirect(resp.StatusCode) {
		location := resp.Header.Get("Location")
		resp.Body.Close()
		if location == "" {
			return &DownloadError{URL: url, Err: fmt.Errorf("status %d without Location header", resp.StatusCode)}
		}

		resp, err = f.get(ctx, location)
		if err != nil {
			return &DownloadError{URL: url, Err: err}
		}
		if isRedirect(resp.StatusCode) {
			resp.Body.Close()
			return &DownloadError{URL: url, Err: fmt.Errorf("redirect chain exceeds one hop (via %s)", location)}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DownloadError{URL: url, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	out, err := os.Create(destPath) // #nosec G304 -- destination chosen by caller inside its temp root
	if err != nil {
		return &DownloadError{URL: url, Err: fmt.Errorf("create %s: %w", destPath, err)}
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(destPath)
		return &DownloadError{URL: url, Err: fmt.Errorf("write %s: %w", destPath, err)}
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return &DownloadError{URL: url, Err: fmt.Errorf("close %s: %w", destPath, err)}
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	return f.client.Do(req)
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
