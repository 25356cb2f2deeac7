// Package catalog persists the tile index for prepared datasets. Each
// dataset-preparation run gets a row with its tiling parameters and every
// image/mask tile pair gets a row keyed by (run, plan index), making the
// pairing between the two tile sets an explicit record instead of a filename
// convention.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"floodseg/internal/models"
	"floodseg/pkg/tiling"
)

type Catalog struct {
	*sql.DB
}

// Open opens (creating if needed) a catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			image_id TEXT NOT NULL,
			image_path TEXT NOT NULL,
			mask_path TEXT,
			tile_size INTEGER NOT NULL,
			overlap INTEGER NOT NULL,
			stitch_policy TEXT,
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tile_pairs (
			run_id TEXT NOT NULL,
			tile_index INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			image_tile_path TEXT NOT NULL,
			mask_tile_path TEXT,
			PRIMARY KEY (run_id, tile_index),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Catalog{db}, nil
}

// RecordRun inserts a run row. Re-recording the same run ID is an error;
// run IDs are UUIDs, so this only happens on caller bugs.
func (c *Catalog) RecordRun(run models.Run) error {
	_, err := c.Exec(
		"INSERT INTO runs (run_id, image_id, image_path, mask_path, tile_size, overlap, stitch_policy, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.ImageID, run.ImagePath, run.MaskPath, run.TileSize, run.Overlap, run.StitchPolicy, run.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// RecordTilePair upserts one tile pair. Re-running dataset preparation for
// the same run overwrites the same rows, mirroring the idempotent tile files.
func (c *Catalog) RecordTilePair(pair models.TilePair) error {
	_, err := c.Exec(
		"INSERT OR REPLACE INTO tile_pairs (run_id, tile_index, x, y, width, height, image_tile_path, mask_tile_path) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		pair.RunID, pair.Index, pair.Window.X, pair.Window.Y, pair.Window.Width, pair.Window.Height, pair.ImageTilePath, pair.MaskTilePath,
	)
	return err
}

// TilePairs returns the run's tile pairs ordered by plan index.
func (c *Catalog) TilePairs(runID string) ([]models.TilePair, error) {
	rows, err := c.Query(
		"SELECT run_id, tile_index, x, y, width, height, image_tile_path, COALESCE(mask_tile_path, '') FROM tile_pairs WHERE run_id = ? ORDER BY tile_index",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []models.TilePair
	for rows.Next() {
		var p models.TilePair
		var w tiling.Window
		if err := rows.Scan(&p.RunID, &p.Index, &w.X, &w.Y, &w.Width, &w.Height, &p.ImageTilePath, &p.MaskTilePath); err != nil {
			return nil, err
		}
		p.Window = w
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// Runs returns every recorded run, newest first.
func (c *Catalog) Runs() ([]models.Run, error) {
	rows, err := c.Query(
		"SELECT run_id, image_id, image_path, COALESCE(mask_path, ''), tile_size, overlap, COALESCE(stitch_policy, ''), created_at FROM runs ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var r models.Run
		var created string
		if err := rows.Scan(&r.ID, &r.ImageID, &r.ImagePath, &r.MaskPath, &r.TileSize, &r.Overlap, &r.StitchPolicy, &created); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
