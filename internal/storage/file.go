package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const fileName = "storage.json"

// File persists all keys in a single JSON document, ~/.config/sensorwatch/storage.json by default.
// Every mutation rewrites the document before returning.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFile loads the storage document from dir, creating an empty one in memory if it doesn't exist
func OpenFile(dir string) (*File, error) {
	path := filepath.Join(dir, fileName)
	f := &File{path: path, values: make(map[string]string)}

	// If the document doesn't exist, start empty
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	if len(data) == 0 {
		return f, nil
	}

	if err := json.Unmarshal(data, &f.values); err != nil {
		// A corrupt document is treated as empty, values fall back to defaults
		f.values = make(map[string]string)
	}

	return f, nil
}

// Path returns the location of the storage document
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if existed {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.values[key]
	if !existed {
		return nil
	}
	delete(f.values, key)
	if err := f.flush(); err != nil {
		f.values[key] = prev
		return err
	}
	return nil
}

// flush writes the document atomically. Callers hold f.mu.
func (f *File) flush() error {
	// Create storage directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}

	return nil
}
