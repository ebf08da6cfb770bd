package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontosync/internal/store"
)

func TestBlobSHAMatchesGit(t *testing.T) {
	// git hash-object of "hello world\n"
	assert.Equal(t, "3b18e512dba79e4c8300dd08aeb37f8e728b8dad", BlobSHA([]byte("hello world\n")))
}

func TestReadWriteCycle(t *testing.T) {
	ctx := context.Background()
	s := New("test")

	res, err := s.Read(ctx, "ontology/a.jsonld")
	require.NoError(t, err)
	assert.Equal(t, store.NotFound, res.Status)

	require.NoError(t, s.Create(ctx, "ontology/a.jsonld", []byte("v1"), "add"))
	assert.ErrorIs(t, s.Create(ctx, "ontology/a.jsonld", []byte("v1"), "add"), store.ErrConflict)

	res, err = s.Read(ctx, "ontology/a.jsonld")
	require.NoError(t, err)
	assert.Equal(t, store.Found, res.Status)
	assert.Equal(t, []byte("v1"), res.Content)
	assert.Equal(t, BlobSHA([]byte("v1")), res.Revision)

	assert.ErrorIs(t, s.Update(ctx, "ontology/a.jsonld", []byte("v2"), "update", "stale"), store.ErrConflict)
	require.NoError(t, s.Update(ctx, "ontology/a.jsonld", []byte("v2"), "update", res.Revision))

	content, ok := s.Get("ontology/a.jsonld")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), content)

	assert.ErrorIs(t, s.Delete(ctx, "ontology/a.jsonld", "delete", res.Revision), store.ErrConflict)
	require.NoError(t, s.Delete(ctx, "ontology/a.jsonld", "delete", BlobSHA([]byte("v2"))))
	assert.Empty(t, s.Paths())

	ops := s.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, []string{"create", "update", "delete"}, []string{ops[0].Kind, ops[1].Kind, ops[2].Kind})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := New("test")
	s.Put("ontology/b.jsonld", []byte("b"))
	s.Put("ontology/a.jsonld", []byte("a"))
	s.Put("ontology/archive/old.jsonld", []byte("old"))
	s.Put("README.md", []byte("readme"))

	entries, err := s.List(ctx, "ontology")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "ontology/a.jsonld", entries[0].Path)
	assert.Equal(t, store.TypeFile, entries[0].Type)
	assert.Equal(t, BlobSHA([]byte("a")), entries[0].Revision)
	assert.Equal(t, "archive", entries[1].Name)
	assert.Equal(t, store.TypeDir, entries[1].Type)

	_, err = s.List(ctx, "README.md")
	assert.ErrorIs(t, err, store.ErrNotDirectory)

	entries, err = s.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInjectedFailures(t *testing.T) {
	ctx := context.Background()
	s := New("test")
	boom := errors.New("boom")

	assert.NoError(t, s.Check(ctx))
	s.CheckErr = boom
	assert.ErrorIs(t, s.Check(ctx), boom)
	assert.Empty(t, s.Ops())

	s.ReadErr = boom
	_, err := s.Read(ctx, "x")
	assert.ErrorIs(t, err, boom)

	s.ListErr = boom
	_, err = s.List(ctx, "")
	assert.ErrorIs(t, err, boom)

	rev := s.Put("x", []byte("x"))
	s.DeleteErrs["x"] = boom
	assert.ErrorIs(t, s.Delete(ctx, "x", "m", rev), boom)
}
