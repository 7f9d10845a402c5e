package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveListRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "http://files.example.com/", zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	saved, err := store.Save(ctx, "7", "2021001_Ada.pdf", strings.NewReader("first"))
	require.NoError(t, err)
	require.Equal(t, "http://files.example.com/uploads/7/2021001_Ada.pdf", saved.URL)
	require.Equal(t, int64(5), saved.Size)

	_, err = store.Save(ctx, "7", "2021001_Ada.pdf", strings.NewReader("second version"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "7", "2021002_Bob.pdf", strings.NewReader("bob"))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "7", "2021001_Ada.pdf"))
	require.NoError(t, err)
	require.Equal(t, "second version", string(content))

	files, err := store.List(ctx, "7")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "2021001_Ada.pdf", files[0].Name)
	require.Equal(t, "2021002_Bob.pdf", files[1].Name)

	require.NoError(t, store.RemoveFolder(ctx, "7"))
	_, err = store.List(ctx, "7")
	require.ErrorIs(t, err, ErrFolderNotFound)

	require.NoError(t, store.RemoveFolder(ctx, "7"))
}

func TestLocalRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../outside", "file.txt", strings.NewReader("x"))
	require.Error(t, err)

	require.Error(t, store.RemoveFolder(context.Background(), ".."))

	saved, err := store.Save(context.Background(), "3", "../../evil.txt", strings.NewReader("x"))
	require.NoError(t, err)
	require.Equal(t, "/uploads/3/evil.txt", saved.URL)
}

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "Ada_Lovelace", SanitizeName("Ada Lovelace"))
	require.Equal(t, "张三_", SanitizeName("张三!"))
	require.Equal(t, "a_b_c", SanitizeName("a/b.c"))
}

func TestLocalRemoveSingleFile(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Save(ctx, "5", "a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "5", "b.txt", strings.NewReader("b"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "5", "a.txt"))
	require.NoError(t, store.Remove(ctx, "5", "a.txt"))

	files, err := store.List(ctx, "5")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "b.txt", files[0].Name)
}
