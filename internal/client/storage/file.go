package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DefaultFile is the document FileBackend uses when no path is given.
const DefaultFile = "storage.json"

// FileBackend keeps every item in a single JSON document on disk. The whole
// document is rewritten on each change. A positive quota caps the size of
// the encoded document in bytes.
type FileBackend struct {
	mu    sync.Mutex
	path  string
	quota int
	items map[string]string
}

// OpenFile loads the document at path, starting empty if it does not exist.
func OpenFile(path string, quota int) (*FileBackend, error) {
	if path == "" {
		path = DefaultFile
	}
	fb := &FileBackend{path: path, quota: quota, items: make(map[string]string)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fb, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&fb.items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if fb.items == nil {
		fb.items = make(map[string]string)
	}
	return fb, nil
}

// Path returns the document location.
func (fb *FileBackend) Path() string {
	return fb.path
}

func (fb *FileBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	v, ok := fb.items[key]
	return v, ok, nil
}

func (fb *FileBackend) SetItem(_ context.Context, key, value string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	next := make(map[string]string, len(fb.items)+1)
	for k, v := range fb.items {
		next[k] = v
	}
	next[key] = value
	if err := fb.save(next); err != nil {
		return err
	}
	fb.items = next
	return nil
}

func (fb *FileBackend) RemoveItem(_ context.Context, key string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, ok := fb.items[key]; !ok {
		return nil
	}
	next := make(map[string]string, len(fb.items))
	for k, v := range fb.items {
		if k != key {
			next[k] = v
		}
	}
	if err := fb.save(next); err != nil {
		return err
	}
	fb.items = next
	return nil
}

func (fb *FileBackend) Keys(_ context.Context) ([]string, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	keys := make([]string, 0, len(fb.items))
	for k := range fb.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (fb *FileBackend) Clear(_ context.Context) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	empty := make(map[string]string)
	if err := fb.save(empty); err != nil {
		return err
	}
	fb.items = empty
	return nil
}

// save writes items to a temp file and renames it over the document.
func (fb *FileBackend) save(items map[string]string) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if fb.quota > 0 && len(b) > fb.quota {
		return ErrQuotaExceeded
	}

	dir := filepath.Dir(fb.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".storage-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fb.path)
}
