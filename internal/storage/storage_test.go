package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/org-tasks-api/internal/config"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "attachments/a/b.txt", strings.NewReader("hello"), 5, "text/plain"))

	rc, err := store.Get(ctx, "attachments/a/b.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, "attachments/a/b.txt"))
	_, err = store.Get(ctx, "attachments/a/b.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.NoError(t, store.Delete(ctx, "attachments/a/b.txt"))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "../escape", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "s3"})
	assert.Error(t, err)
}
