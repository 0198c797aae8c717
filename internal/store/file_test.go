package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFileStore_CreateRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := testRecord{Name: "margherita", Count: 2}
	require.NoError(t, s.Create(ctx, "users", "a@b.com", in))

	var out testRecord
	require.NoError(t, s.Read(ctx, "users", "a@b.com", &out))
	assert.Equal(t, in, out)
}

func TestFileStore_CreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "users", "a@b.com", testRecord{Name: "first"}))

	err := s.Create(ctx, "users", "a@b.com", testRecord{Name: "second"})
	require.ErrorIs(t, err, ErrAlreadyExists)

	// First record is unchanged.
	var out testRecord
	require.NoError(t, s.Read(ctx, "users", "a@b.com", &out))
	assert.Equal(t, "first", out.Name)
}

func TestFileStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)

	var out testRecord
	err := s.Read(context.Background(), "users", "nobody@b.com", &out)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_Update(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "orders", "abc", testRecord{Count: 1}))
	require.NoError(t, s.Update(ctx, "orders", "abc", testRecord{Count: 5}))

	var out testRecord
	require.NoError(t, s.Read(ctx, "orders", "abc", &out))
	assert.Equal(t, 5, out.Count)
}

func TestFileStore_UpdateMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), "orders", "missing", testRecord{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "tokens", "tok1", testRecord{}))
	require.NoError(t, s.Delete(ctx, "tokens", "tok1"))

	var out testRecord
	require.ErrorIs(t, s.Read(ctx, "tokens", "tok1", &out), ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, "tokens", "tok1"), ErrNotFound)
}

func TestFileStore_InvalidKey(t *testing.T) {
	s := newTestStore(t)

	err := s.Create(context.Background(), "users", "../escape", testRecord{})
	require.Error(t, err)
}

func TestFileStore_WarmFilters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFileStore(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "users", "a@b.com", testRecord{Name: "kept"}))

	// A fresh store over the same directory must see records created before.
	reopened, err := NewFileStore(ctx, dir)
	require.NoError(t, err)

	var out testRecord
	require.NoError(t, reopened.Read(ctx, "users", "a@b.com", &out))
	assert.Equal(t, "kept", out.Name)

	require.ErrorIs(t, reopened.Create(ctx, "users", "a@b.com", testRecord{}), ErrAlreadyExists)
}
