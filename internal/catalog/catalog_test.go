package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"floodseg/internal/models"
	"floodseg/pkg/tiling"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Open(filepath.Join(t.TempDir(), "tiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func TestCatalogRunRoundTrip(t *testing.T) {
	cat := openTestCatalog(t)

	run := models.Run{
		ID:           uuid.NewString(),
		ImageID:      "s2a_20230815",
		ImagePath:    "/data/scene.tif",
		MaskPath:     "/data/mask.tif",
		TileSize:     256,
		Overlap:      32,
		StitchPolicy: "last",
		CreatedAt:    time.Date(2023, 8, 15, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cat.RecordRun(run))

	runs, err := cat.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, run, runs[0])
}

func TestCatalogTilePairsOrderedByIndex(t *testing.T) {
	cat := openTestCatalog(t)

	runID := uuid.NewString()
	require.NoError(t, cat.RecordRun(models.Run{ID: runID, ImageID: "x", ImagePath: "x.tif", TileSize: 256, Overlap: 32, CreatedAt: time.Now()}))

	// Insert out of order; TilePairs must come back sorted by index.
	pairs := []models.TilePair{
		{RunID: runID, Index: 2, Window: tiling.Window{X: 448, Y: 0, Width: 104, Height: 256}, ImageTilePath: "images/tile_x_2.tif", MaskTilePath: "masks/tile_x_2.tif"},
		{RunID: runID, Index: 0, Window: tiling.Window{X: 0, Y: 0, Width: 256, Height: 256}, ImageTilePath: "images/tile_x_0.tif", MaskTilePath: "masks/tile_x_0.tif"},
		{RunID: runID, Index: 1, Window: tiling.Window{X: 224, Y: 0, Width: 256, Height: 256}, ImageTilePath: "images/tile_x_1.tif", MaskTilePath: "masks/tile_x_1.tif"},
	}
	for _, p := range pairs {
		require.NoError(t, cat.RecordTilePair(p))
	}

	got, err := cat.TilePairs(runID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, p := range got {
		require.Equal(t, i, p.Index)
	}
}

func TestCatalogTilePairUpsert(t *testing.T) {
	cat := openTestCatalog(t)
	runID := uuid.NewString()

	pair := models.TilePair{RunID: runID, Index: 0, Window: tiling.Window{Width: 256, Height: 256}, ImageTilePath: "old.tif"}
	require.NoError(t, cat.RecordTilePair(pair))

	pair.ImageTilePath = "new.tif"
	require.NoError(t, cat.RecordTilePair(pair))

	got, err := cat.TilePairs(runID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new.tif", got[0].ImageTilePath)
}

func TestCatalogEmptyMaskPath(t *testing.T) {
	cat := openTestCatalog(t)
	runID := uuid.NewString()

	require.NoError(t, cat.RecordTilePair(models.TilePair{RunID: runID, Index: 0, ImageTilePath: "a.tif"}))

	got, err := cat.TilePairs(runID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Empty(t, got[0].MaskTilePath)
}
