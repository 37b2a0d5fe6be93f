package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readrum/internal/common"
	"readrum/internal/extract"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleRecords() []extract.PathRecord {
	return []extract.PathRecord{
		{Preset: "Kit1", Container: "C4: Kick", Note: "C4", Path: "/samples/kick.aif"},
		{Preset: "Kit1", Container: "D4: Snare", Note: "D4", Path: "/samples/snare.wav"},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	t.Parallel()

	c := openTestCatalog(t)
	ctx := context.Background()

	id, err := c.SaveRun(ctx, "/music/kits.RPL", "before-move", sampleRecords())
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := c.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got, "records come back in insertion order")
}

func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	c := openTestCatalog(t)
	ctx := context.Background()

	first, err := c.SaveRun(ctx, "/music/kits.RPL", "", sampleRecords())
	require.NoError(t, err)
	second, err := c.SaveRun(ctx, "/music/kits.RPL", "v2", sampleRecords()[:1])
	require.NoError(t, err)

	runs, err := c.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, int64(1), runs[0].RecordCount)
	assert.Equal(t, int64(2), runs[1].RecordCount)
}

func TestFindRun(t *testing.T) {
	t.Parallel()

	c := openTestCatalog(t)
	ctx := context.Background()

	id, err := c.SaveRun(ctx, "/music/kits.RPL", "baseline", sampleRecords())
	require.NoError(t, err)

	t.Run("by_id", func(t *testing.T) {
		run, err := c.FindRun(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, id, run.ID)
	})

	t.Run("by_tag", func(t *testing.T) {
		run, err := c.FindRun(ctx, "baseline")
		require.NoError(t, err)
		assert.Equal(t, id, run.ID)
	})

	t.Run("tag_resolves_to_newest", func(t *testing.T) {
		newer, err := c.SaveRun(ctx, "/music/kits.RPL", "baseline", nil)
		require.NoError(t, err)
		run, err := c.FindRun(ctx, "baseline")
		require.NoError(t, err)
		assert.Equal(t, newer, run.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := c.FindRun(ctx, "no-such-tag")
		assert.ErrorIs(t, err, common.ErrRunNotFound)
	})
}

func TestSaveRunEmpty(t *testing.T) {
	t.Parallel()

	c := openTestCatalog(t)
	ctx := context.Background()

	id, err := c.SaveRun(ctx, "/music/empty.RPL", "", nil)
	require.NoError(t, err)

	got, err := c.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got)
}
