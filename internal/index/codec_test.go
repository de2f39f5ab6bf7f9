package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
	"github.com/radhakrish-venkat/desktop-search/internal/token"
)

func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	b := NewBuilder(token.Default(), "local:/docs", "")
	_, ok := b.Add("/docs/a.txt", "apple fruit", DocumentMeta{MimeType: "text/plain", Size: 11})
	require.True(t, ok)
	_, ok = b.Add("/docs/b.txt", "orange fruit", DocumentMeta{MimeType: "text/plain", Size: 12})
	require.True(t, ok)
	return b.Snapshot()
}

func TestCodec_RoundTrip(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := filepath.Join(t.TempDir(), "index.json")

	require.NoError(t, Save(snap, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, snap.SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, snap.Sources, loaded.Sources)
	assert.Equal(t, snap.Postings, loaded.Postings)
	assert.Equal(t, snap.Documents, loaded.Documents)
	assert.Equal(t, snap.Stats, loaded.Stats)
}

func TestCodec_SaveIsDeterministic(t *testing.T) {
	snap := buildTestSnapshot(t)
	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.json")
	p2 := filepath.Join(dir, "two.json")

	require.NoError(t, Save(snap, p1))
	require.NoError(t, Save(snap, p2))

	a, err := os.ReadFile(p1)
	require.NoError(t, err)
	b, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCodec_TamperedPayloadFailsClosed(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, Save(snap, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip a content byte inside the payload, keeping the JSON valid.
	tampered := bytes.Replace(raw, []byte("apple"), []byte("applf"), 1)
	require.NotEqual(t, raw, tampered, "fixture must contain the word apple")
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	_, err = Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dserrors.New(dserrors.ErrCodeCorruptIndex, "", nil)))
}

func TestCodec_LegacyArtifactLoadsWithoutTag(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := filepath.Join(t.TempDir(), "index.json")

	body, err := json.Marshal(payload{
		Sources:   snap.Sources,
		Postings:  snap.Postings,
		Documents: snap.Documents,
		Stats:     snap.Stats,
	})
	require.NoError(t, err)
	env, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Payload: body})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, env, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Documents, loaded.Documents)
}

func TestCodec_MalformedArtifacts(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "not json",
			body: "this is not an artifact",
		},
		{
			name: "missing payload",
			body: `{"schema_version":1,"integrity":"00"}`,
		},
		{
			name: "payload wrong shape",
			body: `{"schema_version":1,"payload":{"postings":"nope","documents":{}}}`,
		},
		{
			name: "missing postings section",
			body: `{"schema_version":1,"payload":{"documents":{},"stats":{}}}`,
		},
		{
			name: "future schema version",
			body: `{"schema_version":99,"payload":{"postings":{},"documents":{},"stats":{}}}`,
		},
		{
			name: "posting references unknown document",
			body: `{"schema_version":1,"payload":{"postings":{"apple":["doc-9"]},"documents":{},"stats":{}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Equal(t, dserrors.ErrCodeMalformedIndex, dserrors.GetCode(err))
		})
	}
}

func TestCodec_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, dserrors.ErrCodeFileNotFound, dserrors.GetCode(err))
}

func TestCodec_SaveLeavesNoTempFile(t *testing.T) {
	snap := buildTestSnapshot(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	require.NoError(t, Save(snap, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.json", entries[0].Name())
}
