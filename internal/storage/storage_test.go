package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/montecristo/sales-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage_PutGetDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := QuotationDocumentKey("COT-2025-0001")
	size, err := store.Put(ctx, key, "application/pdf", bytes.NewReader([]byte("%PDF-1.3 first")))
	require.NoError(t, err)
	assert.Equal(t, int64(14), size)

	// Put replaces the object
	_, err = store.Put(ctx, key, "application/pdf", bytes.NewReader([]byte("%PDF-1.3 second")))
	require.NoError(t, err)

	rc, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 second", string(data))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "quotations/../../x", "/abs/path"} {
		_, err := store.Put(context.Background(), key, "text/plain", bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "quotations/COT-2025-0042.pdf", QuotationDocumentKey("COT-2025-0042"))
	assert.Equal(t, "products/abc.png", ProductImageKey("abc", ".PNG"))
}

func TestNewStorage(t *testing.T) {
	store, err := NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	_, err = NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
