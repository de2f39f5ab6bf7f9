package source

import (
	"context"
	"time"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
)

// RemoteFile is one object as reported by the provider's listing API.
type RemoteFile struct {
	ID      string
	Name    string
	Size    int64
	ModTime time.Time
	Mime    string
}

// RemoteClient is the external collaborator for a cloud-storage provider.
// Implementations wrap the provider's HTTP API; the engine only sees this
// interface.
type RemoteClient interface {
	// List enumerates files in a folder, optionally filtered by a
	// provider-side query. An empty result is not an error.
	List(ctx context.Context, folder, query string) ([]RemoteFile, error)

	// FetchText downloads and extracts the plain text of one file.
	FetchText(ctx context.Context, id string) (string, error)
}

// Remote adapts a RemoteClient to the Source interface. Document ids are
// namespaced by prefix so cross-source merges cannot collide.
type Remote struct {
	client RemoteClient
	prefix string
	folder string
	query  string
}

// NewRemote creates a remote source. prefix must be non-empty and unique
// among configured sources.
func NewRemote(client RemoteClient, prefix, folder, query string) *Remote {
	return &Remote{client: client, prefix: prefix, folder: folder, query: query}
}

// Name implements Source.
func (r *Remote) Name() string {
	if r.folder == "" {
		return r.prefix + ":/"
	}
	return r.prefix + ":" + r.folder
}

// Prefix implements Source.
func (r *Remote) Prefix() string {
	return r.prefix
}

// List implements Source. Items carry no content hash: remote change
// detection compares reported size and modified time only, so a listing
// never has to download content just to diff.
func (r *Remote) List(ctx context.Context) ([]Item, error) {
	files, err := r.client.List(ctx, r.folder, r.query)
	if err != nil {
		return nil, dserrors.SourceUnavailable(r.Name(), err)
	}

	items := make([]Item, 0, len(files))
	for _, f := range files {
		items = append(items, Item{
			Locator: f.ID,
			Name:    f.Name,
			Size:    f.Size,
			ModTime: f.ModTime,
			Mime:    f.Mime,
		})
	}
	return items, nil
}

// Fetch implements Source. Sporadic per-item failures are expected and
// surface as recoverable extraction errors.
func (r *Remote) Fetch(ctx context.Context, locator string) (string, error) {
	text, err := r.client.FetchText(ctx, locator)
	if err != nil {
		return "", dserrors.ExtractionFailed(locator, err)
	}
	return text, nil
}
