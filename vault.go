// Package notesafe is the key-management and note-encryption engine
// behind a biometric-gated single-note application. It owns exactly two
// persisted values: a base64-encoded 256-bit symmetric key and one
// self-describing encrypted note record, both stored through an opaque
// secure key-value collaborator (see the persist package).
//
// The engine performs no UI, no biometric prompting and no networking.
// The embedding application runs its access check first and serializes
// calls; the engine adds a single-flight guard around key creation and
// a vault-level lock so that even a misbehaving embedder cannot race a
// key generation or interleave a save with a load.
package notesafe

import (
	"errors"
	"fmt"
	"sync"

	"southwinds.dev/notesafe/audit"
	"southwinds.dev/notesafe/internal/crypto"
	"southwinds.dev/notesafe/internal/mem"
	"southwinds.dev/notesafe/internal/misc"
	"southwinds.dev/notesafe/persist"
)

// NoteVault encrypts and decrypts the single note payload. It has two
// observable states per note slot: absent (nothing stored yet) and
// present (a valid serialized record stored). Save transitions
// absent→present or present→present; there is no delete operation.
type NoteVault struct {
	keys   *KeyStore
	store  persist.Store
	noteID string
	gate   Gate
	audit  audit.Logger

	mu        sync.RWMutex
	memLocked bool
}

// New creates a NoteVault over the given storage collaborator. The
// vault owns its KeyStore; use NewWithKeyStore to share one.
func New(options Options, store persist.Store) (*NoteVault, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}

	logger, err := audit.NewLogger(options.Audit)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit logger: %w", err)
	}

	keyID := options.KeyID
	if keyID == "" {
		keyID = misc.DefaultKeyEntryID
	}

	return NewWithKeyStore(options, store, NewKeyStore(store, keyID, logger), logger)
}

// NewWithKeyStore creates a NoteVault around an existing KeyStore.
func NewWithKeyStore(options Options, store persist.Store, keys *KeyStore, logger audit.Logger) (*NoteVault, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if keys == nil {
		return nil, errors.New("key store is required")
	}
	if logger == nil {
		logger = audit.NewNoOpLogger()
	}

	noteID := options.NoteID
	if noteID == "" {
		noteID = misc.DefaultNoteEntryID
	}

	gate := options.Gate
	if gate == nil {
		gate = Allow()
	}

	nv := &NoteVault{
		keys:   keys,
		store:  store,
		noteID: noteID,
		gate:   gate,
		audit:  logger,
	}

	if options.EnableMemoryLock {
		level, err := mem.Lock()
		if err != nil {
			logger.Log("memory_lock", false, map[string]interface{}{"error": err.Error()})
			return nil, fmt.Errorf("failed to lock memory: %w", err)
		}
		nv.memLocked = true
		logger.Log("memory_lock", true, map[string]interface{}{"level": int(level)})
	}

	return nv, nil
}

// Save encrypts plaintext under the vault key with a fresh random IV
// and atomically replaces any previously stored note. On success the
// old record is gone; on failure it is untouched.
func (nv *NoteVault) Save(plaintext string) error {
	if err := nv.authorize("save_note"); err != nil {
		return err
	}

	nv.mu.Lock()
	defer nv.mu.Unlock()

	keyEnclave, err := nv.keys.GetOrCreateKey()
	if err != nil {
		nv.audit.Log("save_note", false, map[string]interface{}{"error": "key not available"})
		return fmt.Errorf("key not available: %w", err)
	}

	keyBuffer, err := keyEnclave.Open()
	if err != nil {
		nv.audit.Log("save_note", false, map[string]interface{}{"error": "failed to access key"})
		return fmt.Errorf("failed to access key: %w", err)
	}
	defer keyBuffer.Destroy()

	// Fresh IV per save, independent of content, counters and the key
	iv, err := crypto.RandomBytes(misc.IVSize)
	if err != nil {
		nv.audit.Log("save_note", false, map[string]interface{}{"error": "failed to generate IV"})
		return fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext, err := crypto.EncryptCBC([]byte(plaintext), keyBuffer.Bytes(), iv)
	if err != nil {
		nv.audit.Log("save_note", false, map[string]interface{}{"error": "encryption failed"})
		return fmt.Errorf("failed to encrypt note: %w", err)
	}

	record := EncryptedRecord{Ciphertext: ciphertext, IV: iv}
	if err = nv.store.Write(nv.noteID, record.Encode()); err != nil {
		nv.audit.Log("save_note", false, map[string]interface{}{"error": "store write failed"})
		return fmt.Errorf("failed to store note: %w", err)
	}

	nv.audit.Log("save_note", true, map[string]interface{}{
		"data_size":   len(plaintext),
		"record_size": len(ciphertext) + len(iv),
	})
	return nil
}

// Load reads and decrypts the stored note. An absent note is the
// initial state, not an error: found is false and err is nil. Parse
// failures surface as *MalformedRecordError, cryptographic failures as
// *DecryptionError; neither is retried.
func (nv *NoteVault) Load() (note string, found bool, err error) {
	if err = nv.authorize("load_note"); err != nil {
		return "", false, err
	}

	nv.mu.RLock()
	defer nv.mu.RUnlock()

	value, found, err := nv.store.Read(nv.noteID)
	if err != nil {
		nv.audit.Log("load_note", false, map[string]interface{}{"error": "store read failed"})
		return "", false, fmt.Errorf("failed to read note: %w", err)
	}
	if !found {
		nv.audit.Log("load_note", true, map[string]interface{}{"present": false})
		return "", false, nil
	}

	record, err := DecodeRecord(value)
	if err != nil {
		nv.audit.Log("load_note", false, map[string]interface{}{"error": "malformed record"})
		return "", false, err
	}

	keyEnclave, err := nv.keys.GetOrCreateKey()
	if err != nil {
		nv.audit.Log("load_note", false, map[string]interface{}{"error": "key not available"})
		return "", false, fmt.Errorf("key not available: %w", err)
	}

	keyBuffer, err := keyEnclave.Open()
	if err != nil {
		nv.audit.Log("load_note", false, map[string]interface{}{"error": "failed to access key"})
		return "", false, fmt.Errorf("failed to access key: %w", err)
	}
	defer keyBuffer.Destroy()

	plaintext, err := crypto.DecryptCBC(record.Ciphertext, keyBuffer.Bytes(), record.IV)
	if err != nil {
		nv.audit.Log("load_note", false, map[string]interface{}{"error": "decryption failed"})
		return "", false, &DecryptionError{Reason: decryptionReason(err), Err: err}
	}

	nv.audit.Log("load_note", true, map[string]interface{}{
		"present":   true,
		"data_size": len(plaintext),
	})
	return string(plaintext), true, nil
}

// Exists reports whether a note record is currently stored, without
// touching the key or decrypting anything.
func (nv *NoteVault) Exists() (bool, error) {
	nv.mu.RLock()
	defer nv.mu.RUnlock()
	return nv.store.Exists(nv.noteID)
}

// Close releases the memory lock if one was taken and closes the audit
// logger. The vault must not be used afterwards.
func (nv *NoteVault) Close() error {
	nv.mu.Lock()
	defer nv.mu.Unlock()

	if nv.memLocked {
		if err := mem.Unlock(); err != nil {
			nv.audit.Log("memory_unlock", false, map[string]interface{}{"error": err.Error()})
		}
		nv.memLocked = false
	}
	return nv.audit.Close()
}

func (nv *NoteVault) authorize(action string) error {
	decision, err := nv.gate.Authorize()
	if err != nil {
		nv.audit.Log(action, false, map[string]interface{}{"error": "gate check failed"})
		return fmt.Errorf("gate check failed: %w", err)
	}
	if decision != DecisionGranted {
		nv.audit.Log(action, false, map[string]interface{}{"error": "access denied"})
		return ErrAccessDenied
	}
	return nil
}

func decryptionReason(err error) string {
	switch {
	case errors.Is(err, crypto.ErrNotBlockAligned):
		return "ciphertext is not block aligned"
	case errors.Is(err, crypto.ErrInvalidIV):
		return "iv has the wrong length"
	case errors.Is(err, crypto.ErrInvalidPadding):
		return "padding validation failed"
	default:
		return "cipher failure"
	}
}
