// Package prune removes superseded versions of the synchronized file from the
// destination store.
package prune

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"ontosync/internal/models"
	"ontosync/internal/store"
	"ontosync/internal/version"
)

func DeleteMessage(prefix, fileName string) string {
	return fmt.Sprintf("Automated: Delete old version of %s (%s)", prefix, fileName)
}

// Stale deletes every file directly under dir that matches pattern, except
// latest. Listing problems mean there is nothing to prune; a failed delete is
// recorded and the remaining files are still processed.
func Stale(ctx context.Context, s store.Store, dir, latest string, pattern *version.Pattern, logger *slog.Logger) models.PruneResult {
	if logger == nil {
		logger = slog.Default()
	}
	result := models.PruneResult{
		Directory: dir,
		Deleted:   []string{},
		Kept:      []string{},
		Failed:    []models.PruneFailure{},
	}

	logger.Info("checking for older versions to remove", "dir", dir, "store", s.Describe())

	entries, err := s.List(ctx, dir)
	if err != nil {
		logger.Warn("could not list destination directory, nothing to prune", "dir", dir, "error", err)
		return result
	}

	for _, entry := range entries {
		if entry.Type != store.TypeFile {
			continue
		}
		name := path.Base(entry.Path)

		if _, ok := pattern.Match(name); !ok || name == latest {
			logger.Debug("keeping file", "file", name)
			result.Kept = append(result.Kept, name)
			continue
		}

		logger.Info("found older version, deleting", "file", name)
		if err := s.Delete(ctx, entry.Path, DeleteMessage(pattern.Prefix(), name), entry.Revision); err != nil {
			logger.Error("failed to delete older version", "file", name, "error", err)
			result.Failed = append(result.Failed, models.PruneFailure{Path: entry.Path, Error: err.Error()})
			continue
		}
		logger.Info("deleted older version", "file", name)
		result.Deleted = append(result.Deleted, entry.Path)
	}

	return result
}
