package utils

import (
	"fmt"
	"os"
)

// CreateStagingDir creates a fresh private directory under parent, or under
// the system temp directory when parent is empty.
func CreateStagingDir(parent string) (string, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", fmt.Errorf("failed to create staging parent %s: %w", parent, err)
		}
	}
	dir, err := os.MkdirTemp(parent, "ontosync-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return dir, nil
}

func RemoveStagingDir(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove staging directory %s: %w", path, err)
	}
	return nil
}

func CleanupTempFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to cleanup temporary file %s: %w", path, err)
	}
	return nil
}
