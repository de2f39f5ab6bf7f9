package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
)

// envelope is the on-disk shape of a persisted snapshot: the canonical
// payload bytes plus an integrity tag computed over exactly those bytes.
// Legacy artifacts lack the integrity field.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Integrity     string          `json:"integrity,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// payload is the tagged portion of the artifact. encoding/json emits map
// keys in sorted order, so marshaling this struct is canonical as long as
// posting lists stay sorted (the builder and merge engine keep them so).
type payload struct {
	Sources   []string                  `json:"sources"`
	Postings  map[string][]string       `json:"postings"`
	Documents map[string]DocumentRecord `json:"documents"`
	Stats     Stats                     `json:"stats"`
}

// Save persists a snapshot to path as one integrity-tagged artifact.
// The write is atomic: the artifact is written to a temp file in the same
// directory and renamed into place, so a failed save leaves any previous
// artifact untouched.
func Save(snap *Snapshot, path string) error {
	body, err := json.Marshal(payload{
		Sources:   snap.Sources,
		Postings:  snap.Postings,
		Documents: snap.Documents,
		Stats:     snap.Stats,
	})
	if err != nil {
		return dserrors.PersistFailed("failed to serialize snapshot", err)
	}

	sum := sha256.Sum256(body)
	env, err := json.Marshal(envelope{
		SchemaVersion: snap.SchemaVersion,
		Integrity:     hex.EncodeToString(sum[:]),
		Payload:       body,
	})
	if err != nil {
		return dserrors.PersistFailed("failed to serialize snapshot envelope", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return dserrors.PersistFailed("failed to create index directory", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, env, 0o644); err != nil {
		return dserrors.PersistFailed("failed to write snapshot", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return dserrors.PersistFailed("failed to move snapshot into place", err)
	}

	return nil
}

// Load reads a snapshot from path, verifying its integrity tag. A tag
// mismatch fails closed with ErrCodeCorruptIndex; structural problems fail
// with ErrCodeMalformedIndex. Legacy artifacts without a tag load with a
// warning and are never silently re-tagged as trusted.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dserrors.New(dserrors.ErrCodeFileNotFound, "snapshot not found", err).
				WithDetail("path", path)
		}
		return nil, dserrors.Wrap(dserrors.ErrCodeFilePermission, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, dserrors.MalformedIndex("snapshot is not a valid artifact", err)
	}
	if len(env.Payload) == 0 {
		return nil, dserrors.MalformedIndex("snapshot has no payload section", nil)
	}
	if env.SchemaVersion > SchemaVersion {
		return nil, dserrors.MalformedIndex("snapshot schema version is newer than this build supports", nil).
			WithDetail("schema_version", strconv.Itoa(env.SchemaVersion))
	}

	if env.Integrity == "" {
		slog.Warn("loading legacy snapshot without integrity tag",
			slog.String("path", path))
	} else {
		sum := sha256.Sum256(env.Payload)
		if hex.EncodeToString(sum[:]) != env.Integrity {
			return nil, dserrors.CorruptIndex("integrity tag mismatch", nil).
				WithDetail("path", path)
		}
	}

	var body payload
	if err := json.Unmarshal(env.Payload, &body); err != nil {
		return nil, dserrors.MalformedIndex("snapshot payload has wrong shape", err)
	}

	snap := &Snapshot{
		SchemaVersion: env.SchemaVersion,
		Sources:       body.Sources,
		Postings:      body.Postings,
		Documents:     body.Documents,
		Stats:         body.Stats,
	}
	if err := snap.Validate(); err != nil {
		return nil, dserrors.MalformedIndex(err.Error(), nil)
	}

	return snap, nil
}
