package persist

// Store is the secure key-value collaborator the note engine persists
// through. Implementations are expected to provide confidentiality and
// durability for stored values (OS credential storage, restricted files)
// and atomic per-identifier writes: a reader sees either the previous
// value or the new one, never a partial write.
//
// All values passed through this interface are already encrypted or
// encoded by the engine; the store never sees plaintext notes or raw
// key bytes.
type Store interface {

	// Read retrieves the value stored under id. A missing identifier is
	// not an error: found is false and err is nil.
	Read(id string) (value string, found bool, err error)

	// Write stores value under id, replacing any previous value. The
	// write must be atomic with respect to concurrent readers.
	Write(id string, value string) error

	// Exists reports whether a value is present under id.
	Exists(id string) (bool, error)

	// Ping tests availability of the backing service.
	Ping() error

	// Close releases any resources the store holds.
	Close() error

	// GetType returns the store kind, e.g. "filesystem" or "keyring".
	GetType() string
}

// StoreConfig selects and configures a storage backend.
type StoreConfig struct {
	// Type must be one of the StoreType constants.
	Type StoreType `json:"type"`

	// Config holds backend-specific settings, e.g. "base_path" for the
	// filesystem store or "service_name" for the keyring store.
	Config map[string]interface{} `json:"config"`
}

// StoreType represents the supported storage backends.
type StoreType string

const (
	// StoreTypeFileSystem persists entries as restricted files on disk.
	StoreTypeFileSystem StoreType = "filesystem"

	// StoreTypeKeyring persists entries in the OS credential service.
	StoreTypeKeyring StoreType = "keyring"

	// StoreTypeMemory keeps entries in process memory; for tests and
	// ephemeral embedding.
	StoreTypeMemory StoreType = "memory"
)
