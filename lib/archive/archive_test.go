package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "responses"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.now = func() time.Time {
		return time.Date(2026, 9, 10, 14, 30, 5, 0, time.UTC)
	}
	return store
}

func TestSaveHTMLFilename(t *testing.T) {
	store := testStore(t)

	path, err := store.SaveHTML(context.Background(), "<html></html>", 200, "buscarTren.do.log")
	require.NoError(t, err)
	require.Equal(t, "260910_143005_200_buscarTren.do.log", filepath.Base(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(contents))
}

func TestSaveHTMLStatusCodeInFilename(t *testing.T) {
	store := testStore(t)

	path, err := store.SaveHTML(context.Background(), "oops", 500, "buscarTrenFlow.do.log")
	require.NoError(t, err)
	require.Equal(t, "260910_143005_500_buscarTrenFlow.do.log", filepath.Base(path))
}

func TestSaveJSONSiblingName(t *testing.T) {
	store := testStore(t)

	path, err := store.SaveJSON(context.Background(), []string{"a", "b"}, 200, "buscarTren.do.log")
	require.NoError(t, err)
	require.Equal(t, "260910_143005_200_buscarTren.do.json", filepath.Base(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `["a","b"]`, string(contents))
}

func TestListRecent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	timestamps := []time.Time{
		time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC),
	}
	for i, timestamp := range timestamps {
		current := timestamp
		store.now = func() time.Time { return current }
		status := 200
		if i == 2 {
			status = 500
		}
		_, err := store.SaveHTML(ctx, "<html></html>", status, "buscarTren.do.log")
		require.NoError(t, err)
	}

	entries, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	require.Equal(t, "260910_120000_500_buscarTren.do.log", entries[0].Filename)
	require.Equal(t, 500, entries[0].StatusCode)
	require.Equal(t, "260910_110000_200_buscarTren.do.log", entries[1].Filename)
	require.Equal(t, int64(len("<html></html>")), entries[0].SizeBytes)
	require.Equal(t, timestamps[2], entries[0].CreatedAt.UTC())

	all, err := store.ListRecent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestListRecentEmpty(t *testing.T) {
	store := testStore(t)
	entries, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}
