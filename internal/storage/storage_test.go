package storage_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/config"
	"github.com/loxconnect/connect-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStorageInterfaceCompliance(t *testing.T) {
	var _ storage.Storage = (*storage.LocalStorage)(nil)
	var _ storage.Storage = (*storage.AzureBlobStorage)(nil)
	var _ storage.Storage = (*storage.GCSStorage)(nil)
}

func TestPrefixes(t *testing.T) {
	id := uuid.MustParse("8b0f4c36-54d4-4d62-9d53-2f0e3b1a7c11")
	assert.Equal(t, "quote-files/8b0f4c36-54d4-4d62-9d53-2f0e3b1a7c11", storage.QuoteFilesPrefix(id))
	assert.Equal(t, "messages/8b0f4c36-54d4-4d62-9d53-2f0e3b1a7c11", storage.MessagesPrefix(id))
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	prefix := storage.QuoteFilesPrefix(uuid.New())

	key, size, err := ls.Upload(ctx, prefix, "Site Plan.PDF", "application/pdf", bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
	assert.True(t, strings.HasPrefix(key, prefix+"/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	rc, err := ls.Download(ctx, key)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(content))

	require.NoError(t, ls.Delete(ctx, key))
	_, err = ls.Download(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// deleting again is not an error
	assert.NoError(t, ls.Delete(ctx, key))
}

func TestLocalStorage_KeysStayInsideBasePath(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	ls, err := storage.NewLocalStorage(filepath.Join(base, "files"))
	require.NoError(t, err)

	key, _, err := ls.Upload(ctx, "../../escape", "x.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.False(t, strings.Contains(key, ".."))

	_, err = os.Stat(filepath.Join(base, "files", filepath.FromSlash(key)))
	assert.NoError(t, err)
}

func TestLocalStorage_StripsOddExtensions(t *testing.T) {
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key, _, err := ls.Upload(context.Background(), "p", "archive.thisisaverylongextension", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "", filepath.Ext(key))
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	s, err := storage.NewStorage(ctx, &config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)

	_, err = storage.NewStorage(ctx, &config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.ErrorContains(t, err, "connection string")

	_, err = storage.NewStorage(ctx, &config.StorageConfig{Mode: "gcs"}, zap.NewNop())
	assert.ErrorContains(t, err, "bucket")

	_, err = storage.NewStorage(ctx, &config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported")
}
