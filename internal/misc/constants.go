package misc

import "os"

const (
	// KeySize is the length of the symmetric note key in bytes
	KeySize = 32

	// IVSize is the AES block size; every record carries an IV of this length
	IVSize = 16

	// DefaultKeyEntryID is the store identifier the key blob lives under
	DefaultKeyEntryID = "notesafe.key"

	// DefaultNoteEntryID is the store identifier the note record lives under
	DefaultNoteEntryID = "notesafe.note"

	// Pbkdf2Iterations is the work factor for passphrase-sealed backups
	Pbkdf2Iterations = 100_000

	// BackupSaltSize is the PBKDF2 salt length for backup containers
	BackupSaltSize = 32

	FilePermissions os.FileMode = 0600 // user read + write
	DirPermissions  os.FileMode = 0700
)
