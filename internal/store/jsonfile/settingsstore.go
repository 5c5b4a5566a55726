// Package jsonfile implements the host config store on top of a JSON file.
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/hay-kot/nowplaying/internal/core/settings"
)

// SettingsFile is the root JSON structure stored on disk.
type SettingsFile struct {
	Entries map[string]settings.Entry `json:"entries"`
}

// SettingsStore implements settings.Store using a JSON file for persistence.
// A sidecar lock file lets the CLI and the running daemon share the file.
type SettingsStore struct {
	path string
	mu   sync.RWMutex
}

// NewSettingsStore creates a new JSON file settings store at the given path.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Path returns the location of the backing file.
func (s *SettingsStore) Path() string {
	return s.path
}

func (s *SettingsStore) lockPath() string {
	return s.path + ".lock"
}

// withSharedLock executes fn while holding a shared (read) file lock.
func (s *SettingsStore) withSharedLock(fn func() error) error {
	return s.withFileLock(lockShared, fn)
}

// withExclusiveLock executes fn while holding an exclusive (write) file lock.
func (s *SettingsStore) withExclusiveLock(fn func() error) error {
	return s.withFileLock(lockExclusive, fn)
}

func (s *SettingsStore) withFileLock(lockType int, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := lockFile(f, lockType); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer unlockFile(f) //nolint:errcheck

	return fn()
}

// Get returns an entry by key. Returns settings.ErrKeyNotFound if not found.
func (s *SettingsStore) Get(ctx context.Context, key string) (settings.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entry settings.Entry
	var found bool

	err := s.withSharedLock(func() error {
		file, err := s.load()
		if err != nil {
			return err
		}

		entry, found = file.Entries[key]
		return nil
	})
	if err != nil {
		return settings.Entry{}, err
	}

	if !found {
		return settings.Entry{}, settings.ErrKeyNotFound
	}

	return entry, nil
}

// Set creates or updates an entry.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withExclusiveLock(func() error {
		file, err := s.load()
		if err != nil {
			return err
		}

		now := time.Now()
		entry, exists := file.Entries[key]
		if exists {
			entry.Value = value
			entry.UpdatedAt = now
		} else {
			entry = settings.Entry{
				Key:       key,
				Value:     value,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}

		file.Entries[key] = entry
		return s.save(file)
	})
}

// Delete removes an entry by key. Returns settings.ErrKeyNotFound if not found.
func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notFound bool

	err := s.withExclusiveLock(func() error {
		file, err := s.load()
		if err != nil {
			return err
		}

		if _, ok := file.Entries[key]; !ok {
			notFound = true
			return nil
		}

		delete(file.Entries, key)
		return s.save(file)
	})
	if err != nil {
		return err
	}

	if notFound {
		return settings.ErrKeyNotFound
	}

	return nil
}

// List returns all entries matching the prefix, sorted by key.
func (s *SettingsStore) List(ctx context.Context, prefix string) ([]settings.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []settings.Entry

	err := s.withSharedLock(func() error {
		file, err := s.load()
		if err != nil {
			return err
		}

		for _, entry := range file.Entries {
			if prefix == "" || strings.HasPrefix(entry.Key, prefix) {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries, nil
}

// load reads the settings file from disk.
// Returns an empty SettingsFile if the file doesn't exist.
func (s *SettingsStore) load() (SettingsFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return SettingsFile{Entries: make(map[string]settings.Entry)}, nil
		}
		return SettingsFile{}, err
	}

	if len(data) == 0 {
		return SettingsFile{Entries: make(map[string]settings.Entry)}, nil
	}

	var file SettingsFile
	if err := sonic.Unmarshal(data, &file); err != nil {
		return SettingsFile{}, fmt.Errorf("parse %s: %w", s.path, err)
	}

	if file.Entries == nil {
		file.Entries = make(map[string]settings.Entry)
	}

	return file, nil
}

// save writes the settings file to disk atomically.
func (s *SettingsStore) save(file SettingsFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
