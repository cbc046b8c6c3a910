package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/pkg/platform/sentinel"
)

func TestFilesystemStorePut(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root, "https://apply.example.org/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, "certificates/c1.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "https://apply.example.org/files/certificates/c1.pdf", url)

	written, err := os.ReadFile(filepath.Join(root, "certificates", "c1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(written))

	t.Run("never overwrites", func(t *testing.T) {
		_, err := store.Put(ctx, "certificates/c1.pdf", "application/pdf", []byte("other"))
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("rejects escaping paths", func(t *testing.T) {
		_, err := store.Put(ctx, "../outside.pdf", "application/pdf", nil)
		require.Error(t, err)
	})
}
