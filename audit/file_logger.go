package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileLogger appends audit events to a JSON-lines file with user-only
// permissions.
type FileLogger struct {
	file *os.File
	mu   sync.Mutex
	opts FileOptions
}

type FileOptions struct {
	FilePath string `json:"file_path"`
}

// NewFileLogger creates a new file-based audit logger
func NewFileLogger(config *Config) (*FileLogger, error) {
	var fileOpts FileOptions
	if err := parseOptions(config.Options, &fileOpts); err != nil {
		return nil, fmt.Errorf("invalid file logger options: %w", err)
	}

	if fileOpts.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file logger")
	}

	if err := os.MkdirAll(filepath.Dir(fileOpts.FilePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(fileOpts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &FileLogger{file: file, opts: fileOpts}, nil
}

func (f *FileLogger) Log(action string, success bool, metadata map[string]interface{}) error {
	event := Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Success:   success,
		Metadata:  metadata,
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err = f.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

func (f *FileLogger) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
