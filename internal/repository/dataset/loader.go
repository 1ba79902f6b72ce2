// Package dataset loads the recipe and artwork tables from CSV, Parquet or SQLite.
package dataset

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/artpair/internal/config"
	"github.com/kailas-cloud/artpair/internal/domain/corpus"
)

// Logical field names used in column mappings.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldTitle       = "title"
	FieldArtist      = "artist"
	FieldStyle       = "style"
	FieldCategory    = "category"
	FieldImageURL    = "image_url"
)

var (
	recipeFields  = []string{FieldName, FieldDescription}
	artworkFields = []string{FieldTitle, FieldArtist, FieldStyle, FieldCategory, FieldImageURL}

	recipeRequired  = map[string]bool{FieldName: true, FieldDescription: true}
	artworkRequired = map[string]bool{FieldTitle: true}
)

// Load reads both tables concurrently and freezes them into a snapshot.
func Load(ctx context.Context, cfg config.CorpusConfig, logger *zap.Logger) (*corpus.Snapshot, error) {
	start := time.Now()

	var recipes []corpus.Recipe
	var artworks []corpus.Artwork

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := readTable(ctx, cfg.Recipes, recipeFields, recipeRequired)
		if err != nil {
			return fmt.Errorf("load recipes from %s: %w", cfg.Recipes.Path, err)
		}
		recipes = make([]corpus.Recipe, len(rows))
		for i, r := range rows {
			recipes[i] = corpus.Recipe{Name: r[0], Description: r[1]}
		}
		return nil
	})
	g.Go(func() error {
		rows, err := readTable(ctx, cfg.Artworks, artworkFields, artworkRequired)
		if err != nil {
			return fmt.Errorf("load artworks from %s: %w", cfg.Artworks.Path, err)
		}
		artworks = make([]corpus.Artwork, len(rows))
		for i, r := range rows {
			artworks[i] = corpus.Artwork{
				Title:    r[0],
				Artist:   r[1],
				Style:    r[2],
				Category: r[3],
				ImageURL: r[4],
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped per table above
	}

	snap := corpus.NewSnapshot(recipes, artworks)
	logger.Info("Corpus loaded",
		zap.String("corpus_id", snap.ID()),
		zap.Int("recipes", len(recipes)),
		zap.Int("artworks", len(artworks)),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

// readTable returns rows with values ordered like fields. Missing optional
// columns read as empty strings; missing required columns are an error.
func readTable(ctx context.Context, t config.TableConfig, fields []string, required map[string]bool) ([][]string, error) {
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = t.Columns[f]
	}

	var (
		rows    [][]string
		missing []int
		err     error
	)
	switch t.Format {
	case config.FormatCSV:
		rows, missing, err = readCSV(t.Path, columns)
	case config.FormatParquet:
		rows, missing, err = readParquet(t.Path, columns)
	case config.FormatSQLite:
		rows, missing, err = readSQLite(ctx, t.Path, t.Table, columns)
	default:
		return nil, fmt.Errorf("unsupported format %q", t.Format)
	}
	if err != nil {
		return nil, err
	}

	for _, idx := range missing {
		if required[fields[idx]] {
			return nil, fmt.Errorf("required column %q (%s) not found", columns[idx], fields[idx])
		}
	}
	return rows, nil
}
