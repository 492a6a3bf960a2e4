package faultlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsys/vigil/pkg/clock"
)

func fixedClock(t time.Time) clock.Clock {
	return clock.Func(func() time.Time { return t })
}

func TestRecordName(t *testing.T) {
	// No zero padding: matches the on-disk contract of the original logs
	captured := time.Date(2023, 9, 26, 5, 44, 15, 0, time.UTC)
	assert.Equal(t, "2023-9-26-5-44-15-traceback.log", recordName(captured))
}

func TestRecordWritesFile(t *testing.T) {
	dir := t.TempDir()
	captured := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	store, err := NewDirStore(dir, fixedClock(captured))
	require.NoError(t, err)

	name, err := store.Record("runtime error: index out of range")
	require.NoError(t, err)
	assert.Equal(t, "2024-1-2-3-4-5-traceback.log", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "runtime error: index out of range", string(data))
}

func TestRecordSameSecondOverwrites(t *testing.T) {
	dir := t.TempDir()
	captured := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	store, err := NewDirStore(dir, fixedClock(captured))
	require.NoError(t, err)

	first, err := store.Record("first fault")
	require.NoError(t, err)
	second, err := store.Record("second fault")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Later write wins; still a single record
	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(filepath.Join(dir, second))
	require.NoError(t, err)
	assert.Equal(t, "second fault", string(data))
}

func TestCountIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir, clock.System)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-1-1-0-0-0-traceback.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-1-1-0-0-1-traceback.log"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("z"), 0o644))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCountIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir, fixedClock(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)))
	require.NoError(t, err)

	_, err = store.Record("boom")
	require.NoError(t, err)

	first, err := store.Count()
	require.NoError(t, err)
	second, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPurgeDeletesOnlyStaleRecords(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	store, err := NewDirStore(dir, fixedClock(now))
	require.NoError(t, err)

	ages := map[string]time.Duration{
		"2024-6-15-2-0-0-traceback.log":  10 * time.Hour,
		"2024-6-13-13-0-0-traceback.log": 47 * time.Hour,
		"2024-6-13-11-0-0-traceback.log": 49 * time.Hour,
		"2024-6-12-12-0-0-traceback.log": 72 * time.Hour,
	}
	for name, age := range ages {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("trace"), 0o644))
		mtime := now.Add(-age)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	found, deleted, err := store.Purge(DefaultRetentionHours)
	require.NoError(t, err)
	assert.Equal(t, 4, found)
	assert.Equal(t, 2, deleted)

	remaining, err := store.List()
	require.NoError(t, err)
	names := make([]string, 0, len(remaining))
	for _, rec := range remaining {
		names = append(names, rec.Name)
	}
	assert.ElementsMatch(t, []string{
		"2024-6-15-2-0-0-traceback.log",
		"2024-6-13-13-0-0-traceback.log",
	}, names)
}

func TestPurgeListingFailure(t *testing.T) {
	store := &DirStore{dir: filepath.Join(t.TempDir(), "missing"), clk: clock.System}

	_, _, err := store.Purge(DefaultRetentionHours)
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir, clock.System)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-1-1-0-0-0-traceback.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-1-1-0-0-1-traceback.log"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("z"), 0o644))

	removed, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Non-record files are untouched
	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err)
}
