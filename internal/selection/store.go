package selection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Record is the stored selection for one project root.
type Record struct {
	// Names holds previously chosen qualified names in stored order.
	Names []string

	// Found distinguishes "never selected" from "selected nothing".
	Found bool
}

// Store persists selections keyed by project root.
type Store interface {
	// Load returns the record for root. It never fails: missing or malformed
	// storage yields an empty record.
	Load(root string) Record

	// Save replaces the record for root with names.
	Save(root string, names []string) error
}

// history is the on-disk layout of the selection file.
type history struct {
	Selections map[string][]string `json:"selections"`
}

// FileStore keeps every project's selection in one JSON file.
//
// Saves take an exclusive flock on a sibling ".lock" file for the
// read-modify-write and replace the file atomically, so saves for different
// roots never drop each other's entries. Two runs over the same root still
// resolve as last-writer-wins.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store.
func (s *FileStore) Load(root string) Record {
	h := s.read()
	names, ok := h.Selections[root]
	if !ok {
		return Record{}
	}
	return Record{Names: dedupe(names), Found: true}
}

// Save implements Store.
func (s *FileStore) Save(root string, names []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock selection history: %w", err)
	}
	defer lock.Unlock()

	h := s.read()
	h.Selections[root] = dedupe(names)

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize selection history: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to write selection history: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write selection history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write selection history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write selection history: %w", err)
	}

	return nil
}

// read loads the whole file, treating any failure as an empty history.
func (s *FileStore) read() history {
	empty := history{Selections: map[string][]string{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Debug("Ignoring unreadable selection history", "path", s.path, "error", err)
		}
		return empty
	}

	var h history
	if err := json.Unmarshal(data, &h); err != nil {
		slog.Debug("Ignoring malformed selection history", "path", s.path, "error", err)
		return empty
	}
	if h.Selections == nil {
		h.Selections = map[string][]string{}
	}
	return h
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]string{}}
}

// Load implements Store.
func (m *MemoryStore) Load(root string) Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, ok := m.records[root]
	if !ok {
		return Record{}
	}
	return Record{Names: append([]string(nil), names...), Found: true}
}

// Save implements Store.
func (m *MemoryStore) Save(root string, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[root] = dedupe(names)
	return nil
}

// dedupe removes repeated names, keeping the first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
