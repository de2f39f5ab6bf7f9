// Package source abstracts where indexable documents come from: a local
// directory tree or a remote cloud-storage provider. A Source lists items
// with enough metadata to fingerprint them and fetches extracted text for
// individual items on demand.
package source

import (
	"context"
	"time"
)

// Item is one indexable document as reported by a source listing.
type Item struct {
	// Locator is the source-specific identifier: a filesystem path for
	// local items, the provider's object id for remote ones.
	Locator string
	// Name is the display name (base filename or provider title).
	Name string
	// Size in bytes as reported by the source.
	Size int64
	// ModTime is the last modification time as reported by the source.
	ModTime time.Time
	// Mime is the detected or reported MIME type, if known.
	Mime string
	// Hash is the content hash for local items. Remote listings leave it
	// empty; change detection for remote sources uses size and mtime only.
	Hash string
}

// Source is one provider of indexable documents.
type Source interface {
	// Name returns the source descriptor, e.g. "local:/home/u/docs".
	Name() string

	// Prefix returns the document-id namespace for this source. Local
	// sources return "" (ids come from the build counter); remote sources
	// return a prefix so merged snapshots cannot collide on ids.
	Prefix() string

	// List enumerates the source's current items. A listing failure means
	// the whole source is unreachable for this pass.
	List(ctx context.Context) ([]Item, error)

	// Fetch returns the extracted plain text for one item. Per-item
	// failures are recoverable: the caller skips the item and continues.
	Fetch(ctx context.Context, locator string) (string, error)
}
