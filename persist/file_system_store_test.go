package persist

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileSystemStore {
	t.Helper()
	fs, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestFileSystemStoreReadWrite(t *testing.T) {
	fs := newTestFileStore(t)

	_, found, err := fs.Read("notesafe.note")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, fs.Write("notesafe.note", "first"))

	value, found, err := fs.Read("notesafe.note")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "first", value)

	// Overwrite fully replaces the previous value
	require.NoError(t, fs.Write("notesafe.note", "second"))
	value, found, err = fs.Read("notesafe.note")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", value)
}

func TestFileSystemStoreExists(t *testing.T) {
	fs := newTestFileStore(t)

	exists, err := fs.Exists("notesafe.key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.Write("notesafe.key", "blob"))

	exists, err = fs.Exists("notesafe.key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFileSystemStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	dir := t.TempDir()
	fs, err := NewFileSystemStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Write("notesafe.key", "blob"))

	info, err := os.Stat(filepath.Join(dir, "notesafe.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, dirInfo.IsDir())
}

func TestFileSystemStoreRejectsUnsafeIdentifiers(t *testing.T) {
	fs := newTestFileStore(t)

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		err := fs.Write(id, "value")
		assert.Error(t, err, "identifier %q should be rejected", id)
	}
}

func TestFileSystemStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileSystemStore(dir)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, fs.Write("notesafe.note", "value"))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSystemStorePing(t *testing.T) {
	fs := newTestFileStore(t)
	assert.NoError(t, fs.Ping())
	assert.Equal(t, "filesystem", fs.GetType())
	assert.NoError(t, fs.Close())
}
