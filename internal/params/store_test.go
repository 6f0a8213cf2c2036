package params

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureArchiver struct {
	names []string
	fail  bool
}

func (a *captureArchiver) UploadSnapshot(ctx context.Context, name string, data []byte) error {
	if a.fail {
		return errors.New("archive down")
	}
	a.names = append(a.names, name)
	return nil
}

func newTestStore(t *testing.T, archiver Archiver) (*Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "order_params.json")
	backupDir := filepath.Join(dir, "backups")
	return NewStore(path, backupDir, archiver, zerolog.Nop()), path, backupDir
}

func TestStore_LoadMissingFileReturnsDefaults(t *testing.T) {
	store, _, _ := newTestStore(t, nil)

	set, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, set.Get(WeightRecent))
	assert.Equal(t, 1.0, set.Get(SafetyCoefficient))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	set := Defaults()
	_, err := set.Apply(SafetyCoefficient, 1.2)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, set))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1.2, loaded.Get(SafetyCoefficient))
	r, w, tr := loaded.Weights()
	assert.InDelta(t, 1.0, r+w+tr, 1e-9)
}

func TestStore_SaveBacksUpPreviousFile(t *testing.T) {
	archiver := &captureArchiver{}
	store, _, backupDir := newTestStore(t, archiver)
	ctx := context.Background()

	// First save has nothing to back up.
	require.NoError(t, store.Save(ctx, Defaults()))
	entries, err := os.ReadDir(backupDir)
	if err == nil {
		assert.Empty(t, entries)
	}
	assert.Empty(t, archiver.names)

	// Second save backs up the first snapshot and ships it to the archive.
	require.NoError(t, store.Save(ctx, Defaults()))
	entries, err = os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "order_params_")
	assert.Equal(t, []string{entries[0].Name()}, archiver.names)
}

func TestStore_ArchiveFailureDoesNotFailSave(t *testing.T) {
	store, path, _ := newTestStore(t, &captureArchiver{fail: true})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Defaults()))
	require.NoError(t, store.Save(ctx, Defaults()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestParseSnapshot_DecodesArchivedPayload(t *testing.T) {
	store, path, _ := newTestStore(t, nil)
	ctx := context.Background()

	set := Defaults()
	_, err := set.Apply(SafetyCoefficient, 1.2)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, set))

	// A downloaded archive object carries the same payload as the file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	restored, err := ParseSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, 1.2, restored.Get(SafetyCoefficient))

	_, err = ParseSnapshot([]byte("not json"))
	assert.Error(t, err)
}

func TestStore_LoadCorruptFileFails(t *testing.T) {
	store, path, _ := newTestStore(t, nil)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := store.Load()
	assert.Error(t, err)
}
