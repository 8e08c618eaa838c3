package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-model/pkg/content/upload"
	"github.com/tendant/simple-model/pkg/content/upload/memory"
)

func TestStoreSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.Save(ctx, "docs/a.txt", "text/plain", strings.NewReader("hello")))

	rc, err := store.Open(ctx, "docs/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	meta, err := store.Meta(ctx, "docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)
	assert.Equal(t, "text/plain", meta.ContentType)

	url, err := store.DownloadURL(ctx, "docs/a.txt", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "memory://docs/a.txt", url)

	require.NoError(t, store.Delete(ctx, "docs/a.txt"))
	_, err = store.Open(ctx, "docs/a.txt")
	assert.ErrorIs(t, err, upload.ErrObjectNotFound)
}

func TestStoreMissingObject(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := store.Open(ctx, "nope")
	assert.ErrorIs(t, err, upload.ErrObjectNotFound)
	_, err = store.Meta(ctx, "nope")
	assert.ErrorIs(t, err, upload.ErrObjectNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "nope"), upload.ErrObjectNotFound)
	_, err = store.DownloadURL(ctx, "nope", "")
	assert.ErrorIs(t, err, upload.ErrObjectNotFound)
}

func TestStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.Save(ctx, "k", "text/plain", strings.NewReader("one")))
	require.NoError(t, store.Save(ctx, "k", "text/plain", strings.NewReader("two")))

	rc, err := store.Open(ctx, "k")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
