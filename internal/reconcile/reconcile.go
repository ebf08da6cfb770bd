// Package reconcile brings one destination file in line with a local copy.
package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"ontosync/internal/store"
)

type Action string

const (
	Created   Action = "created"
	Updated   Action = "updated"
	Unchanged Action = "unchanged"
)

type Request struct {
	Path       string
	FileName   string
	Version    string
	SourceName string
	Content    []byte
}

type Outcome struct {
	Action           Action
	Path             string
	Message          string
	PreviousRevision string
}

func AddMessage(req Request) string {
	return fmt.Sprintf("Automated: Add %s (v%s) from %s", req.FileName, req.Version, req.SourceName)
}

func UpdateMessage(req Request) string {
	return fmt.Sprintf("Automated: Update %s (v%s) from %s", req.FileName, req.Version, req.SourceName)
}

// Reconcile reads the current file at req.Path and creates it, updates it,
// or leaves it alone when the stored bytes already equal req.Content. At most
// one write is issued. Any read failure other than not-found is returned
// without writing.
func Reconcile(ctx context.Context, s store.Store, req Request, logger *slog.Logger) (Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("path", req.Path)

	current, err := s.Read(ctx, req.Path)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read %s from %s: %w", req.Path, s.Describe(), err)
	}

	switch current.Status {
	case store.Found:
		if bytes.Equal(current.Content, req.Content) {
			logger.Info("content has not changed, skipping update", "file", req.FileName)
			return Outcome{Action: Unchanged, Path: req.Path, PreviousRevision: current.Revision}, nil
		}

		msg := UpdateMessage(req)
		logger.Info("content has changed, updating", "file", req.FileName, "revision", current.Revision)
		if err := s.Update(ctx, req.Path, req.Content, msg, current.Revision); err != nil {
			return Outcome{}, fmt.Errorf("failed to update %s: %w", req.Path, err)
		}
		logger.Info("file updated", "file", req.FileName)
		return Outcome{Action: Updated, Path: req.Path, Message: msg, PreviousRevision: current.Revision}, nil

	case store.NotFound:
		msg := AddMessage(req)
		logger.Info("file not found in destination, creating", "file", req.FileName)
		if err := s.Create(ctx, req.Path, req.Content, msg); err != nil {
			return Outcome{}, fmt.Errorf("failed to create %s: %w", req.Path, err)
		}
		logger.Info("file created", "file", req.FileName)
		return Outcome{Action: Created, Path: req.Path, Message: msg}, nil

	default:
		return Outcome{}, fmt.Errorf("unexpected read status %v for %s", current.Status, req.Path)
	}
}
