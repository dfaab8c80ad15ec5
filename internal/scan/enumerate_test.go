package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensio/imageinv/pkg/logger"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
var jpegMagic = []byte{0xff, 0xd8, 0xff, 0xe0}

func TestEnumerateFiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), pngMagic, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), jpegMagic, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))
	// Image extension but not image content: the sniff must reject it.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fake.jpg"), []byte("just text"), 0o644))

	refs, cleanup, err := New(logger.NewTestLogger()).Enumerate(dir)
	defer cleanup()
	require.NoError(t, err)

	require.Len(t, refs, 2)
	assert.Equal(t, "a.jpg", refs[0].Name, "lexical walk order")
	assert.Equal(t, "b.png", refs[1].Name)
	assert.Equal(t, ".jpg", refs[0].Extension)
	assert.True(t, filepath.IsAbs(refs[0].Path))
}

func TestEnumerateRecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.png"), pngMagic, 0o644))

	refs, cleanup, err := New(logger.NewTestLogger()).Enumerate(dir)
	defer cleanup()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "deep.png", refs[0].Name)
}

func TestEnumerateZipArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evidence.zip")

	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("photos/one.png")
	require.NoError(t, err)
	_, err = entry.Write(pngMagic)
	require.NoError(t, err)
	entry, err = zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	refs, cleanup, err := New(logger.NewTestLogger()).Enumerate(archive)
	require.NoError(t, err)

	require.Len(t, refs, 1)
	assert.Equal(t, "one.png", refs[0].Name)
	stagedPath := refs[0].Path

	cleanup()
	_, err = os.Stat(stagedPath)
	assert.True(t, os.IsNotExist(err), "staging dir removed by cleanup")
}

func TestEnumerateRejectsEscapingZipEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")

	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.CreateHeader(&zip.FileHeader{Name: "../escape.png"})
	require.NoError(t, err)
	_, err = entry.Write(pngMagic)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, cleanup, err := New(logger.NewTestLogger()).Enumerate(archive)
	defer cleanup()
	require.Error(t, err)
}
