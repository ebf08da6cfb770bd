// Package memory is an in-process store.Store. Revisions are git blob
// hashes of the content, matching what the GitHub backend reports.
package memory

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"ontosync/internal/store"
)

type Op struct {
	Kind    string
	Path    string
	Message string
}

type Store struct {
	mu    sync.Mutex
	name  string
	files map[string][]byte
	ops   []Op

	// Injected failures, keyed by path where applicable.
	CheckErr   error
	ReadErr    error
	ListErr    error
	WriteErr   error
	DeleteErrs map[string]error
}

func New(name string) *Store {
	return &Store{
		name:       name,
		files:      make(map[string][]byte),
		DeleteErrs: make(map[string]error),
	}
}

func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Put seeds a file without recording an operation and returns its revision.
func (s *Store) Put(p string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[clean(p)] = append([]byte(nil), content...)
	return BlobSHA(content)
}

func (s *Store) Get(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.files[clean(p)]
	return c, ok
}

func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Ops returns the successful mutations in the order they happened.
func (s *Store) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Op(nil), s.ops...)
}

func (s *Store) Check(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CheckErr
}

func (s *Store) Read(_ context.Context, p string) (store.ReadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return store.ReadResult{}, s.ReadErr
	}
	c, ok := s.files[clean(p)]
	if !ok {
		return store.NotFoundResult(), nil
	}
	return store.FoundResult(append([]byte(nil), c...), BlobSHA(c)), nil
}

func (s *Store) Create(_ context.Context, p string, content []byte, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	p = clean(p)
	if _, ok := s.files[p]; ok {
		return fmt.Errorf("create %s: %w: file already exists", p, store.ErrConflict)
	}
	s.files[p] = append([]byte(nil), content...)
	s.ops = append(s.ops, Op{Kind: "create", Path: p, Message: message})
	return nil
}

func (s *Store) Update(_ context.Context, p string, content []byte, message, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	p = clean(p)
	current, ok := s.files[p]
	if !ok {
		return fmt.Errorf("update %s: file does not exist", p)
	}
	if BlobSHA(current) != revision {
		return fmt.Errorf("update %s: %w", p, store.ErrConflict)
	}
	s.files[p] = append([]byte(nil), content...)
	s.ops = append(s.ops, Op{Kind: "update", Path: p, Message: message})
	return nil
}

func (s *Store) Delete(_ context.Context, p, message, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = clean(p)
	if err := s.DeleteErrs[p]; err != nil {
		return err
	}
	current, ok := s.files[p]
	if !ok {
		return fmt.Errorf("delete %s: file does not exist", p)
	}
	if BlobSHA(current) != revision {
		return fmt.Errorf("delete %s: %w", p, store.ErrConflict)
	}
	delete(s.files, p)
	s.ops = append(s.ops, Op{Kind: "delete", Path: p, Message: message})
	return nil
}

func (s *Store) List(_ context.Context, dir string) ([]store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	dir = clean(dir)
	if _, ok := s.files[dir]; ok && dir != "" {
		return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDirectory)
	}

	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	seenDirs := make(map[string]bool)
	var entries []store.Entry
	for p, c := range s.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			name := rest[:i]
			if !seenDirs[name] {
				seenDirs[name] = true
				entries = append(entries, store.Entry{Name: name, Path: prefix + name, Type: store.TypeDir})
			}
			continue
		}
		entries = append(entries, store.Entry{
			Name:     rest,
			Path:     p,
			Type:     store.TypeFile,
			Revision: BlobSHA(c),
			Size:     int64(len(c)),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (s *Store) Describe() string {
	return "memory:" + s.name
}

func clean(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	return p
}
