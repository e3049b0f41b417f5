// Package prefs persists viewer preferences between sessions.
//
// Preferences live in a small JSON document:
//
//	{"editor_visible": true}
//
// A missing file or key means the default: the editor is visible.
package prefs

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/haview/pkg/errors"
)

// FileName is the preferences file inside the haview config directory.
const FileName = "prefs.json"

// Store reads and writes the editor visibility flag.
type Store interface {
	EditorVisible() (bool, error)
	SetEditorVisible(visible bool) error
}

type document struct {
	EditorVisible *bool `json:"editor_visible,omitempty"`
}

// FileStore is a Store backed by a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store at path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// EditorVisible returns the stored flag, true when unset.
func (s *FileStore) EditorVisible() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return true, err
	}
	if doc.EditorVisible == nil {
		return true, nil
	}
	return *doc.EditorVisible, nil
}

// SetEditorVisible stores the flag.
func (s *FileStore) SetEditorVisible(visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking the toggle.
		doc = document{}
	}
	doc.EditorVisible = &visible

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode preferences")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(s.path))
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", s.path)
	}
	return nil
}

func (s *FileStore) read() (document, error) {
	var doc document
	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, errors.Wrap(errors.ErrCodeInternal, err, "read %s", s.path)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", s.path)
	}
	return doc, nil
}

// MemoryStore keeps the flag in memory. It is used when no config
// directory is available and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	visible *bool
}

// EditorVisible implements Store.
func (m *MemoryStore) EditorVisible() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visible == nil {
		return true, nil
	}
	return *m.visible, nil
}

// SetEditorVisible implements Store.
func (m *MemoryStore) SetEditorVisible(visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = &visible
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
