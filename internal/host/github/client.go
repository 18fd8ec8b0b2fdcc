// Package github speaks to the GitHub Releases API, the only release index
// this installer consumes. The client is deliberately small: one endpoint
// (releases/latest), typed wire structs, and a bounded response size.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxResponseBytes bounds the release index payload (4 MB). The latest-release
// document is a few KB in practice; anything bigger is hostile or broken.
const maxResponseBytes = 4 << 20

// Release is the subset of the GitHub release payload the installer uses.
type Release struct {
	TagName string  `json:"tag_name"`
	Body    string  `json:"body"`
	Assets  []Asset `json:"assets"`
}

// Asset is the subset of the release asset payload the installer uses.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Client fetches release metadata for a single owner/repo pair.
type Client struct {
	httpClient   *http.Client
	owner        string
	repo         string
	baseURL      string
	downloadBase string
	userAgent    string
	token        string
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client, useful for tests and timeouts.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) { g.httpClient = c }
}

// WithBaseURL overrides the API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) { g.baseURL = strings.TrimRight(base, "/") }
}

// WithDownloadBase overrides the host serving source archives.
func WithDownloadBase(base string) ClientOption {
	return func(g *Client) { g.downloadBase = strings.TrimRight(base, "/") }
}

// WithToken sets a personal access token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(g *Client) { g.token = token }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) { g.userAgent = ua }
}

// NewClient creates a Client for owner/repo with production defaults.
func NewClient(owner, repo string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		owner:        owner,
		repo:         repo,
		baseURL:      "https://api.github.com",
		downloadBase: "https://github.com",
		userAgent:    "fcmcp/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenFromEnv returns a GitHub token from the environment, preferring the
// installer-specific variable.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("FCMCP_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// LatestRelease fetches the newest published release for the configured repo.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	// Only attach the token to the API host, never to a redirect target.
	if c.token != "" && strings.Contains(url, "github.com") {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rel); err != nil {
		return nil, &DecodeError{URL: url, Err: err}
	}
	return &rel, nil
}

// SourceArchiveURL returns the zip archive URL for a release tag. GitHub wraps
// the archive contents in a "repo-tag/" directory; the payload search below
// the extraction root absorbs that.
func (c *Client) SourceArchiveURL(tag string) string {
	return fmt.Sprintf("%s/%s/%s/archive/refs/tags/%s.zip", c.downloadBase, c.owner, c.repo, tag)
}

// BranchArchiveURL returns the zip archive URL for a branch head. Used when
// the release index is unreachable and the install falls back to the default
// branch.
func (c *Client) BranchArchiveURL(branch string) string {
	return fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip", c.downloadBase, c.owner, c.repo, branch)
}

// StatusError reports a non-success HTTP status from the release index.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// DecodeError reports a payload that could not be parsed as a release document.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("parse release payload from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
