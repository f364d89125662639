package notesafe

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"southwinds.dev/notesafe/persist"
)

const backupPassphrase = "test-backup-passphrase"

func TestBackupRestoreRoundTrip(t *testing.T) {
	vault, _ := newTestVault(t)
	require.NoError(t, vault.Save("note worth keeping"))

	backupPath := filepath.Join(t.TempDir(), "notesafe.backup")
	container, err := vault.ExportBackup(backupPath, backupPassphrase)
	require.NoError(t, err)
	assert.NotEmpty(t, container.BackupID)
	assert.Equal(t, "pbkdf2-chacha20poly1305", container.EncryptionMethod)

	// Restore into an empty store: simulates a lost credential store
	freshStore := persist.NewMemoryStore()
	restored, err := New(DefaultOptions(), freshStore)
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.RestoreBackup(backupPath, backupPassphrase))

	note, found, err := restored.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "note worth keeping", note)
}

func TestBackupOfEmptyVaultCreatesKey(t *testing.T) {
	vault, store := newTestVault(t)

	backupPath := filepath.Join(t.TempDir(), "notesafe.backup")
	_, err := vault.ExportBackup(backupPath, backupPassphrase)
	require.NoError(t, err)

	exists, err := store.Exists("notesafe.key")
	require.NoError(t, err)
	assert.True(t, exists, "export must persist a key so the container is restorable")

	// Restoring the key-only container into a fresh vault works
	fresh, err := New(DefaultOptions(), persist.NewMemoryStore())
	require.NoError(t, err)
	defer fresh.Close()
	require.NoError(t, fresh.RestoreBackup(backupPath, backupPassphrase))

	_, found, err := fresh.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRestoreRejectsWrongPassphrase(t *testing.T) {
	vault, _ := newTestVault(t)
	require.NoError(t, vault.Save("secret"))

	backupPath := filepath.Join(t.TempDir(), "notesafe.backup")
	_, err := vault.ExportBackup(backupPath, backupPassphrase)
	require.NoError(t, err)

	fresh, err := New(DefaultOptions(), persist.NewMemoryStore())
	require.NoError(t, err)
	defer fresh.Close()

	assert.Error(t, fresh.RestoreBackup(backupPath, "wrong passphrase"))
}

func TestRestoreRejectsTamperedContainer(t *testing.T) {
	vault, _ := newTestVault(t)
	require.NoError(t, vault.Save("secret"))

	backupPath := filepath.Join(t.TempDir(), "notesafe.backup")
	_, err := vault.ExportBackup(backupPath, backupPassphrase)
	require.NoError(t, err)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)

	var container BackupContainer
	require.NoError(t, json.Unmarshal(data, &container))
	container.EncryptedData = "AAAA" + container.EncryptedData[4:]
	tampered, err := json.Marshal(container)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(backupPath, tampered, 0600))

	fresh, err := New(DefaultOptions(), persist.NewMemoryStore())
	require.NoError(t, err)
	defer fresh.Close()

	err = fresh.RestoreBackup(backupPath, backupPassphrase)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum")
}

func TestRestoreRefusesToOrphanExistingNote(t *testing.T) {
	// Container with a key but no note, taken from an empty vault
	emptyVault, err := New(DefaultOptions(), persist.NewMemoryStore())
	require.NoError(t, err)
	backupPath := filepath.Join(t.TempDir(), "notesafe.backup")
	_, err = emptyVault.ExportBackup(backupPath, backupPassphrase)
	require.NoError(t, err)
	require.NoError(t, emptyVault.Close())

	// A different vault with its own key and a stored note
	vault, _ := newTestVault(t)
	require.NoError(t, vault.Save("do not orphan me"))

	err = vault.RestoreBackup(backupPath, backupPassphrase)
	require.Error(t, err)

	// The note must still decrypt with the original key
	note, found, err := vault.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "do not orphan me", note)
}

func TestBackupFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	vault, _ := newTestVault(t)
	require.NoError(t, vault.Save("secret"))

	backupPath := filepath.Join(t.TempDir(), "notesafe.backup")
	_, err := vault.ExportBackup(backupPath, backupPassphrase)
	require.NoError(t, err)

	info, err := os.Stat(backupPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExportRequiresPassphrase(t *testing.T) {
	vault, _ := newTestVault(t)
	_, err := vault.ExportBackup(filepath.Join(t.TempDir(), "b"), "")
	assert.Error(t, err)
	assert.Error(t, vault.RestoreBackup("nonexistent", ""))
}
