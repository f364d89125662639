package notesafe

import (
	"southwinds.dev/notesafe/audit"
	"southwinds.dev/notesafe/internal/misc"
)

// Options configures a NoteVault. The zero value is usable: default
// storage identifiers, no gate, no audit logging, no memory lock.
type Options struct {
	// KeyID is the store identifier the symmetric key blob lives under.
	// Changing it after a key has been written orphans the old key and
	// every note encrypted with it.
	KeyID string

	// NoteID is the store identifier the serialized note record lives
	// under.
	NoteID string

	// Gate is consulted before every Save and Load. Nil means Allow():
	// the embedding application runs its biometric check before calling
	// in, and the engine only ever sees granted calls.
	Gate Gate

	// EnableMemoryLock asks the OS to keep process memory out of swap
	// for the vault's lifetime. Best effort; see internal/mem.
	EnableMemoryLock bool

	// Audit selects the audit logger. Nil disables auditing.
	Audit *audit.Config
}

// DefaultOptions returns Options with the default storage identifiers
func DefaultOptions() Options {
	return Options{
		KeyID:  misc.DefaultKeyEntryID,
		NoteID: misc.DefaultNoteEntryID,
	}
}
