package persist

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeyringStore implements Store on top of the operating system's
// credential service (Keychain, Secret Service, wincred, KWallet).
// This is the production backend: the OS handles encryption at rest
// and per-user access control, which is exactly the confidentiality
// assumption the engine makes about its collaborator.
type KeyringStore struct {
	ring    keyring.Keyring
	service string
}

// NewKeyringStore opens the OS credential service under serviceName.
func NewKeyringStore(serviceName string) (*KeyringStore, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return &KeyringStore{ring: ring, service: serviceName}, nil
}

// NewKeyringStoreFromConfig creates a KeyringStore from StoreConfig
func NewKeyringStoreFromConfig(config StoreConfig) (*KeyringStore, error) {
	serviceName, ok := config.Config["service_name"].(string)
	if !ok {
		return nil, fmt.Errorf("service_name is required for keyring store")
	}
	return NewKeyringStore(serviceName)
}

func (k *KeyringStore) Read(id string) (string, bool, error) {
	item, err := k.ring.Get(id)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read entry %s: %w", id, err)
	}
	return string(item.Data), true, nil
}

func (k *KeyringStore) Write(id string, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:   id,
		Data:  []byte(value),
		Label: k.service + ": " + id,
	})
	if err != nil {
		return fmt.Errorf("failed to write entry %s: %w", id, err)
	}
	return nil
}

func (k *KeyringStore) Exists(id string) (bool, error) {
	_, err := k.ring.Get(id)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read entry %s: %w", id, err)
	}
	return true, nil
}

func (k *KeyringStore) Ping() error {
	if _, err := k.ring.Keys(); err != nil {
		return fmt.Errorf("keyring unavailable: %w", err)
	}
	return nil
}

func (k *KeyringStore) Close() error {
	return nil
}

func (k *KeyringStore) GetType() string {
	return string(StoreTypeKeyring)
}
