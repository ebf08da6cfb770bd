// Package download streams a remote file into a local directory.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"ontosync/pkg/utils"
)

type Downloader struct {
	client *http.Client
	logger *slog.Logger
}

func New(client *http.Client, logger *slog.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{client: client, logger: logger}
}

// ToDir downloads fileURL into dir/name and returns the local path. The body
// is written to a temporary file first and only renamed into place once the
// whole transfer succeeded, so a failed download never leaves a file at the
// returned path.
func (d *Downloader) ToDir(ctx context.Context, fileURL, dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	localPath := filepath.Join(dir, name)
	d.logger.Info("downloading file", "url", fileURL, "path", localPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to download %s: unexpected status %s", fileURL, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer utils.CleanupTempFile(tmpPath)

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return "", fmt.Errorf("failed to download %s: received %d of %d bytes", fileURL, written, resp.ContentLength)
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Info("downloaded file", "path", localPath, "size", utils.FormatBytes(written))
	return localPath, nil
}
