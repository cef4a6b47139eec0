// internal/logstore/file.go
package logstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/tamzrod/flowlogger/internal/sample"
)

// FileStore is the CSV log file. The file is opened for each operation
// and closed again, so nothing stays open between samples.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore uses the file at path. A missing file is created with the
// header on first append.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("logstore: file path required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Append(r sample.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := false
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		fresh = true
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logstore: open %s: %w", s.path, err)
	}

	line := r.Line() + "\n"
	if fresh {
		line = sample.Header + "\n" + line
	}
	if _, err := io.WriteString(f, line); err != nil {
		_ = f.Close()
		return fmt.Errorf("logstore: append %s: %w", s.path, err)
	}
	return f.Close()
}

func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, []byte(sample.Header+"\n"), 0o644); err != nil {
		return fmt.Errorf("logstore: reset %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Dump(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logstore: open %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("logstore: read %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
