package notesafe

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"southwinds.dev/notesafe/audit"
	"southwinds.dev/notesafe/internal/crypto"
	"southwinds.dev/notesafe/internal/misc"
	"southwinds.dev/notesafe/persist"
)

// KeyStore owns the single 256-bit symmetric note key. It reads the key
// from the storage collaborator on first use, generating and persisting
// one if none exists, and holds it in a memguard enclave for the rest
// of the process lifetime.
//
// The key is generated at most once. A stored blob that does not decode
// to exactly 32 bytes is surfaced as *CorruptKeyError and never
// replaced: regenerating would silently destroy every note encrypted
// under the old key.
//
// GetOrCreateKey is single-flight: concurrent first calls are
// serialized by an internal mutex, so exactly one key is generated and
// at most one write reaches the store.
type KeyStore struct {
	store persist.Store
	keyID string
	audit audit.Logger

	mu      sync.Mutex
	enclave *memguard.Enclave
}

// NewKeyStore creates a KeyStore over the given storage collaborator.
// An empty keyID selects the default identifier; a nil logger disables
// auditing.
func NewKeyStore(store persist.Store, keyID string, logger audit.Logger) *KeyStore {
	if keyID == "" {
		keyID = misc.DefaultKeyEntryID
	}
	if logger == nil {
		logger = audit.NewNoOpLogger()
	}
	return &KeyStore{store: store, keyID: keyID, audit: logger}
}

// GetOrCreateKey returns the note key as a memguard enclave. Callers
// open the enclave, use the bytes, and destroy the buffer; the enclave
// itself stays owned by the KeyStore and is returned unchanged on every
// subsequent call.
func (ks *KeyStore) GetOrCreateKey() (*memguard.Enclave, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.enclave != nil {
		return ks.enclave, nil
	}

	blob, found, err := ks.store.Read(ks.keyID)
	if err != nil {
		ks.audit.Log("get_key", false, map[string]interface{}{"error": "store read failed"})
		return nil, fmt.Errorf("failed to read key from store: %w", err)
	}

	if found {
		raw, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			ks.audit.Log("get_key", false, map[string]interface{}{"error": "key blob is not base64"})
			return nil, &CorruptKeyError{Length: -1, Err: err}
		}
		if len(raw) != misc.KeySize {
			ks.audit.Log("get_key", false, map[string]interface{}{"error": "wrong key length", "length": len(raw)})
			return nil, &CorruptKeyError{Length: len(raw)}
		}

		// NewEnclave wipes raw after sealing it
		ks.enclave = memguard.NewEnclave(raw)
		ks.audit.Log("get_key", true, nil)
		return ks.enclave, nil
	}

	raw, err := crypto.RandomBytes(misc.KeySize)
	if err != nil {
		ks.audit.Log("create_key", false, map[string]interface{}{"error": "random source failed"})
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	// Encode before sealing: the enclave constructor wipes its input
	encoded := base64.StdEncoding.EncodeToString(raw)
	if err = ks.store.Write(ks.keyID, encoded); err != nil {
		memguard.WipeBytes(raw)
		ks.audit.Log("create_key", false, map[string]interface{}{"error": "store write failed"})
		return nil, fmt.Errorf("failed to persist key: %w", err)
	}

	ks.enclave = memguard.NewEnclave(raw)
	ks.audit.Log("create_key", true, nil)
	return ks.enclave, nil
}

// reset drops the cached enclave so the next GetOrCreateKey re-reads
// the store. Used after a backup restore replaces the stored key.
func (ks *KeyStore) reset() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.enclave = nil
}
