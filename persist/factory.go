package persist

import "fmt"

// NewStore creates a Store from the given configuration
func NewStore(config StoreConfig) (Store, error) {
	switch config.Type {
	case StoreTypeFileSystem:
		return NewFileSystemStoreFromConfig(config)
	case StoreTypeKeyring:
		return NewKeyringStoreFromConfig(config)
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
