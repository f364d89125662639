package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"southwinds.dev/notesafe/internal/misc"
)

// FileSystemStore implements Store on the local filesystem. Each
// identifier maps to one file under basePath, written atomically via a
// temp file and rename, with user-only permissions throughout.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore initializes and returns a new FileSystemStore
func NewFileSystemStore(basePath string) (*FileSystemStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required")
	}

	if err := os.MkdirAll(basePath, misc.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", basePath, err)
	}

	return &FileSystemStore{basePath: basePath}, nil
}

// NewFileSystemStoreFromConfig creates a FileSystemStore from StoreConfig
func NewFileSystemStoreFromConfig(config StoreConfig) (*FileSystemStore, error) {
	basePath, ok := config.Config["base_path"].(string)
	if !ok {
		return nil, fmt.Errorf("base_path is required for filesystem store")
	}
	return NewFileSystemStore(basePath)
}

func (fs *FileSystemStore) Read(id string) (string, bool, error) {
	path, err := fs.entryPath(id)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read entry %s: %w", id, err)
	}
	return string(data), true, nil
}

func (fs *FileSystemStore) Write(id string, value string) error {
	path, err := fs.entryPath(id)
	if err != nil {
		return err
	}
	if err = writeSecureFile(path, []byte(value), misc.FilePermissions); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", id, err)
	}
	return nil
}

func (fs *FileSystemStore) Exists(id string) (bool, error) {
	path, err := fs.entryPath(id)
	if err != nil {
		return false, err
	}

	if _, err = os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat entry %s: %w", id, err)
	}
	return true, nil
}

func (fs *FileSystemStore) Ping() error {
	info, err := os.Stat(fs.basePath)
	if err != nil {
		return fmt.Errorf("store path unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store path %s is not a directory", fs.basePath)
	}
	return nil
}

func (fs *FileSystemStore) Close() error {
	return nil
}

func (fs *FileSystemStore) GetType() string {
	return string(StoreTypeFileSystem)
}

// entryPath maps an identifier to a file path, rejecting anything that
// could escape the base directory.
func (fs *FileSystemStore) entryPath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("entry identifier is required")
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid entry identifier: %s", id)
	}
	return filepath.Join(fs.basePath, id), nil
}

// writeSecureFile writes data to path atomically: write to a temp file
// in the same directory, sync, then rename over the target.
func writeSecureFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err = tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err = tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err = os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
