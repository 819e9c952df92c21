package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// File reads and writes the snapshot as a single JSON document. Every Save
// rewrites the whole file; the collection is small enough that this is
// simpler than incremental updates.
type File struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// NewFile returns a File for path. Nothing is read until Load.
func NewFile(path string, log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}
	return &File{path: path, log: log}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load returns the stored snapshot. A missing file yields an empty
// snapshot; unreadable or malformed data is logged and also yields an
// empty snapshot.
func (f *File) Load() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.log.Warn("read snapshot", zap.String("path", f.path), zap.Error(err))
		}
		return normalize(Snapshot{})
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		f.log.Warn("malformed snapshot, starting empty", zap.String("path", f.path), zap.Error(err))
		return normalize(Snapshot{})
	}
	return normalize(s)
}

// Save atomically writes s to disk.
func (f *File) Save(s Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeAtomic(normalize(s))
}

// writeAtomic writes to a temp file then renames it over path.
// Caller must hold f.mu.
func (f *File) writeAtomic(s Snapshot) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
