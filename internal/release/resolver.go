// Package release resolves the latest published version of the add-on from
// the release index and classifies resolution failures.
package release

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contextform/fcmcp/internal/host/github"
	"github.com/contextform/fcmcp/internal/model"
)

// NetworkError means the release index could not be reached or answered with
// a non-success status.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("release index unreachable: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means the index answered but its payload was not a
// usable release document.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("release index returned a malformed payload: %v", e.Err)
}
func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Resolver turns release-index lookups into ReleaseDescriptors.
type Resolver struct {
	client *github.Client
}

// NewResolver wraps a release index client.
func NewResolver(client *github.Client) *Resolver {
	return &Resolver{client: client}
}

// Latest fetches the newest release and validates it at the boundary: a
// release without a version tag is malformed, not a zero value to be carried
// forward.
func (r *Resolver) Latest(ctx context.Context) (*model.ReleaseDescriptor, error) {
	rel, err := r.client.LatestRelease(ctx)
	if err != nil {
		var decodeErr *github.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, &MalformedResponseError{Err: err}
		}
		return nil, &NetworkError{Err: err}
	}

	if strings.TrimSpace(rel.TagName) == "" {
		return nil, &MalformedResponseError{Err: errors.New("release has no tag_name")}
	}

	desc := &model.ReleaseDescriptor{
		Version:    rel.TagName,
		Notes:      rel.Body,
		ArchiveURL: r.client.SourceArchiveURL(rel.TagName),
	}
	for _, a := range rel.Assets {
		desc.Assets = append(desc.Assets, model.Asset{
			Name:        a.Name,
			DownloadURL: a.BrowserDownloadURL,
			Size:        a.Size,
		})
	}
	return desc, nil
}
