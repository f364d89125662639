package notesafe

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"southwinds.dev/notesafe/internal/crypto"
	"southwinds.dev/notesafe/internal/misc"
)

const (
	backupFormatVersion   = "1.0"
	backupEncryptionLabel = "pbkdf2-chacha20poly1305"
)

// BackupContainer is the outer, unencrypted envelope of a vault backup.
// Only EncryptedData is sensitive; the rest is bookkeeping that can be
// inspected without the passphrase.
type BackupContainer struct {
	BackupID         string    `json:"backup_id"`
	BackupTimestamp  time.Time `json:"backup_timestamp"`
	BackupVersion    string    `json:"backup_version"`
	EncryptionMethod string    `json:"encryption_method"`
	Checksum         string    `json:"checksum"`
	EncryptedData    string    `json:"encrypted_data"`
}

// backupData is the passphrase-sealed payload: the key blob and note
// record exactly as the store holds them.
type backupData struct {
	Key  string `json:"key"`
	Note string `json:"note,omitempty"`
}

// ExportBackup writes a passphrase-sealed recovery container for the
// vault's key and note to path. The OS credential store is the only
// durable copy of the key; losing it destroys the note irrecoverably,
// and this container is the way out of that corner.
//
// If no key exists yet, one is created first so the container is always
// restorable.
func (nv *NoteVault) ExportBackup(path, passphrase string) (*BackupContainer, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}

	nv.mu.RLock()
	defer nv.mu.RUnlock()

	if _, err := nv.keys.GetOrCreateKey(); err != nil {
		nv.audit.Log("export_backup", false, map[string]interface{}{"error": "key not available"})
		return nil, fmt.Errorf("key not available: %w", err)
	}

	keyBlob, _, err := nv.store.Read(nv.keys.keyID)
	if err != nil {
		nv.audit.Log("export_backup", false, map[string]interface{}{"error": "store read failed"})
		return nil, fmt.Errorf("failed to read key blob: %w", err)
	}

	noteRecord, _, err := nv.store.Read(nv.noteID)
	if err != nil {
		nv.audit.Log("export_backup", false, map[string]interface{}{"error": "store read failed"})
		return nil, fmt.Errorf("failed to read note record: %w", err)
	}

	payload, err := json.Marshal(backupData{Key: keyBlob, Note: noteRecord})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup payload: %w", err)
	}

	sealed, err := crypto.EncryptWithPassphrase(payload, passphrase)
	if err != nil {
		nv.audit.Log("export_backup", false, map[string]interface{}{"error": "sealing failed"})
		return nil, fmt.Errorf("failed to seal backup: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(sealed)
	container := &BackupContainer{
		BackupID:         uuid.New().String(),
		BackupTimestamp:  time.Now().UTC(),
		BackupVersion:    backupFormatVersion,
		EncryptionMethod: backupEncryptionLabel,
		Checksum:         crypto.CalculateChecksum([]byte(encoded)),
		EncryptedData:    encoded,
	}

	data, err := json.MarshalIndent(container, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup container: %w", err)
	}

	if err = os.WriteFile(path, data, misc.FilePermissions); err != nil {
		nv.audit.Log("export_backup", false, map[string]interface{}{"error": "file write failed"})
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	nv.audit.Log("export_backup", true, map[string]interface{}{
		"backup_id": container.BackupID,
		"file_size": len(data),
	})
	return container, nil
}

// RestoreBackup reads a container written by ExportBackup, verifies its
// checksum, opens it with the passphrase and writes key and note back
// to the store. This is explicit recovery, not key rotation: the
// restored key blob is validated like any stored key, and the cached
// in-memory key is dropped so the next operation picks up the restored
// one.
func (nv *NoteVault) RestoreBackup(path, passphrase string) error {
	if passphrase == "" {
		return errors.New("passphrase is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var container BackupContainer
	if err = json.Unmarshal(data, &container); err != nil {
		return fmt.Errorf("invalid backup container: %w", err)
	}

	if container.Checksum != crypto.CalculateChecksum([]byte(container.EncryptedData)) {
		nv.audit.Log("restore_backup", false, map[string]interface{}{"error": "checksum mismatch"})
		return errors.New("backup checksum mismatch")
	}

	sealed, err := base64.StdEncoding.DecodeString(container.EncryptedData)
	if err != nil {
		return fmt.Errorf("invalid backup container: %w", err)
	}

	payload, err := crypto.DecryptWithPassphrase(sealed, passphrase)
	if err != nil {
		nv.audit.Log("restore_backup", false, map[string]interface{}{"error": "unseal failed"})
		return fmt.Errorf("failed to open backup: %w", err)
	}

	var backup backupData
	if err = json.Unmarshal(payload, &backup); err != nil {
		return fmt.Errorf("invalid backup payload: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(backup.Key)
	if err != nil {
		return &CorruptKeyError{Length: -1, Err: err}
	}
	if len(raw) != misc.KeySize {
		return &CorruptKeyError{Length: len(raw)}
	}

	nv.mu.Lock()
	defer nv.mu.Unlock()

	// A container without a note cannot replace a key that still has a
	// note encrypted under it; that would orphan the note.
	if backup.Note == "" {
		existing, found, err := nv.store.Read(nv.keys.keyID)
		if err != nil {
			return fmt.Errorf("failed to read key blob: %w", err)
		}
		if found && existing != backup.Key {
			noteExists, err := nv.store.Exists(nv.noteID)
			if err != nil {
				return fmt.Errorf("failed to check note record: %w", err)
			}
			if noteExists {
				nv.audit.Log("restore_backup", false, map[string]interface{}{"error": "would orphan stored note"})
				return errors.New("refusing to restore: backup has no note but the store has one encrypted under a different key")
			}
		}
	}

	if err = nv.store.Write(nv.keys.keyID, backup.Key); err != nil {
		nv.audit.Log("restore_backup", false, map[string]interface{}{"error": "store write failed"})
		return fmt.Errorf("failed to restore key: %w", err)
	}
	if backup.Note != "" {
		if err = nv.store.Write(nv.noteID, backup.Note); err != nil {
			nv.audit.Log("restore_backup", false, map[string]interface{}{"error": "store write failed"})
			return fmt.Errorf("failed to restore note: %w", err)
		}
	}

	nv.keys.reset()

	nv.audit.Log("restore_backup", true, map[string]interface{}{
		"backup_id": container.BackupID,
		"has_note":  backup.Note != "",
	})
	return nil
}
