// Package store defines the destination file store the synchronizer writes
// to. Every mutating call carries a commit message, and updates and deletes
// carry the revision token observed by the caller so the backend can reject
// writes that would overwrite a concurrent change.
package store

import (
	"context"
	"errors"
)

var (
	// ErrConflict is returned when the backend rejects a write because the
	// supplied revision no longer matches the stored object.
	ErrConflict = errors.New("revision conflict")

	// ErrNotDirectory is returned by List when the path names a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrUnreachable is returned by Check when the destination does not exist
	// or the credential cannot see it.
	ErrUnreachable = errors.New("destination is not accessible")
)

type ReadStatus int

const (
	NotFound ReadStatus = iota
	Found
)

func (s ReadStatus) String() string {
	if s == Found {
		return "found"
	}
	return "not_found"
}

// ReadResult is the outcome of a successful Read. Content and Revision are
// only meaningful when Status is Found. Transport and permission failures
// are reported through the error return instead.
type ReadResult struct {
	Status   ReadStatus
	Content  []byte
	Revision string
}

func FoundResult(content []byte, revision string) ReadResult {
	return ReadResult{Status: Found, Content: content, Revision: revision}
}

func NotFoundResult() ReadResult {
	return ReadResult{Status: NotFound}
}

type EntryType string

const (
	TypeFile EntryType = "file"
	TypeDir  EntryType = "dir"
)

type Entry struct {
	Name     string
	Path     string
	Type     EntryType
	Revision string
	Size     int64
}

type Store interface {
	// Check verifies the destination exists and is visible with the
	// configured credential. It makes no writes.
	Check(ctx context.Context) error
	Read(ctx context.Context, path string) (ReadResult, error)
	Create(ctx context.Context, path string, content []byte, message string) error
	Update(ctx context.Context, path string, content []byte, message, revision string) error
	Delete(ctx context.Context, path, message, revision string) error
	List(ctx context.Context, dir string) ([]Entry, error)
	// Describe names the store in logs, e.g. "github:owner/repo@main".
	Describe() string
}
