package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageMissingFileLoadsNil(t *testing.T) {
	fsStore := NewFileStorage(filepath.Join(t.TempDir(), "nested", "sync_records.json"))

	doc, err := fsStore.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestFileStorageRoundTripLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sync_records.json")
	store := NewStore(NewFileStorage(path))
	ctx := context.Background()

	_, err := store.Create(ctx, SyncCheckpoint{ModuleName: "Members", Endpoint: "/portal/members"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Contains(t, onDisk, "sync_records")
	assert.Contains(t, onDisk, "metadata")

	var meta DocumentMetadata
	require.NoError(t, json.Unmarshal(onDisk["metadata"], &meta))
	assert.Equal(t, documentVersion, meta.Version)

	reopened := NewStore(NewFileStorage(path))
	got, err := reopened.Get(ctx, "Members")
	require.NoError(t, err)
	assert.Equal(t, "/portal/members", got.Endpoint)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestMemoryStorageIsolatesCallers(t *testing.T) {
	mem := NewMemoryStorage()
	ctx := context.Background()

	doc := NewDocument(time.Now())
	doc.SyncRecords = append(doc.SyncRecords, SyncCheckpoint{ModuleName: "Members", Metadata: map[string]any{"a": 1}})
	require.NoError(t, mem.Save(ctx, doc))

	doc.SyncRecords[0].Metadata["a"] = 2

	loaded, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.SyncRecords[0].Metadata["a"])
}
