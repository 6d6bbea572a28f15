package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/repository/dualindex"
)

// indexer is the dual index as seen by a reseed.
type indexer interface {
	store
	Clear(ctx context.Context) error
	BuildIndexes(ctx context.Context) (dualindex.Stats, error)
}

// Reseed clears the store, loads the stable and optional hot files and builds the indexes.
func Reseed(ctx context.Context, idx indexer, stablePath, hotPath string, logger *zap.Logger) (dualindex.Stats, error) {
	if err := idx.Clear(ctx); err != nil {
		return dualindex.Stats{}, fmt.Errorf("reseed: %w", err)
	}

	files := []struct {
		path string
		p    offer.Partition
	}{{stablePath, offer.Stable}, {hotPath, offer.Hot}}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		_, err := LoadCSV(ctx, f.path, idx, f.p == offer.Hot, logger)
		if err != nil && f.p == offer.Hot && errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Hot offers file not found, skipping", zap.String("path", f.path))
			continue
		}
		if err != nil {
			return dualindex.Stats{}, fmt.Errorf("reseed %s: %w", f.p, err)
		}
	}

	stats, err := idx.BuildIndexes(ctx)
	if err != nil {
		return dualindex.Stats{}, fmt.Errorf("reseed: %w", err)
	}
	return stats, nil
}

// counter reports how many offers the store holds per partition.
type counter interface {
	Count(ctx context.Context) (stable, hot int, err error)
}

// Prepare readies the indexes at startup. It reseeds from CSV when forced or
// when the store holds no offers; otherwise it builds from the stored offers.
func Prepare(ctx context.Context, idx indexer, c counter, force bool, stablePath, hotPath string, logger *zap.Logger) (dualindex.Stats, error) {
	stable, hot, err := c.Count(ctx)
	if err != nil {
		return dualindex.Stats{}, fmt.Errorf("prepare: %w", err)
	}
	logger.Info("Offer store opened", zap.Int("stable", stable), zap.Int("hot", hot))

	if force || (stable+hot == 0 && stablePath != "") {
		return Reseed(ctx, idx, stablePath, hotPath, logger)
	}
	stats, err := idx.BuildIndexes(ctx)
	if err != nil {
		return dualindex.Stats{}, fmt.Errorf("prepare: %w", err)
	}
	return stats, nil
}
