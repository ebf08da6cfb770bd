package store

import (
	"context"
	"log/slog"

	"ontosync/pkg/utils"
)

type dryRun struct {
	Store
	logger *slog.Logger
}

// DryRun wraps s so that reads go through and writes are only logged.
func DryRun(s Store, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &dryRun{Store: s, logger: logger}
}

func (d *dryRun) Create(_ context.Context, path string, content []byte, message string) error {
	d.logger.Info("dry run: would create file", "path", path, "size", utils.FormatBytes(int64(len(content))), "message", message)
	return nil
}

func (d *dryRun) Update(_ context.Context, path string, content []byte, message, revision string) error {
	d.logger.Info("dry run: would update file", "path", path, "size", utils.FormatBytes(int64(len(content))), "revision", revision, "message", message)
	return nil
}

func (d *dryRun) Delete(_ context.Context, path, message, revision string) error {
	d.logger.Info("dry run: would delete file", "path", path, "revision", revision, "message", message)
	return nil
}

func (d *dryRun) Describe() string {
	return d.Store.Describe() + " (dry run)"
}
