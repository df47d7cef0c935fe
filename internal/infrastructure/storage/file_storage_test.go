package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveReadDelete(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, "http://localhost:8080/files", zap.NewNop())
	ctx := context.Background()

	t.Run("saves into nested directories", func(t *testing.T) {
		err := fs.Save(ctx, "templates/abc/letter.xlsx", []byte("xlsx bytes"))
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(tempDir, "templates", "abc", "letter.xlsx"))

		content, err := fs.Read(ctx, "templates/abc/letter.xlsx")
		require.NoError(t, err)
		assert.Equal(t, []byte("xlsx bytes"), content)
		assert.True(t, fs.Exists(ctx, "templates/abc/letter.xlsx"))
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "generated/doc.xlsx", []byte("original")))
		require.NoError(t, fs.Save(ctx, "generated/doc.xlsx", []byte("updated")))

		content, err := os.ReadFile(filepath.Join(tempDir, "generated", "doc.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "tmp/gone.txt", []byte("x")))
		require.NoError(t, fs.Delete(ctx, "tmp/gone.txt"))
		require.NoError(t, fs.Delete(ctx, "tmp/gone.txt"))
		assert.False(t, fs.Exists(ctx, "tmp/gone.txt"))
	})
}

func TestLocalFileStorage_RejectsEscapingPaths(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), "", zap.NewNop())
	ctx := context.Background()

	for _, p := range []string{"../outside.txt", "templates/../../etc/passwd"} {
		t.Run(p, func(t *testing.T) {
			assert.Error(t, fs.Save(ctx, p, []byte("x")))
			_, err := fs.Read(ctx, p)
			assert.Error(t, err)
			assert.Error(t, fs.Delete(ctx, p))
		})
	}
}

func TestLocalFileStorage_URL(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), "http://localhost:8080/files/", zap.NewNop())

	assert.Equal(t, "http://localhost:8080/files/templates/t1/surat.xlsx", fs.URL("templates/t1/surat.xlsx"))
	assert.Equal(t, "http://localhost:8080/files/generated/a%20b.xlsx", fs.URL("generated/a b.xlsx"))
	assert.Equal(t, "http://localhost:8080/files/x.xlsx", fs.URL("/x.xlsx"))
}
