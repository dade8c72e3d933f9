// Package filestore persists small record sets as whole JSON files.
//
// Every mutation loads the file, applies the change and atomically
// replaces the file, under a per-collection mutex. A missing or corrupt
// file reads as empty.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/abhisek/studentai/internal/logger"
)

// ErrNotFound is returned when a record id is not in the collection.
var ErrNotFound = errors.New("record not found")

// Entry pairs a record with its id.
type Entry[T any] struct {
	ID     string
	Record T
}

// Collection is an id → record mapping stored in one JSON object file.
type Collection[T any] struct {
	mu   sync.Mutex
	path string
	name string
	ids  IDAllocator
	log  *logger.Logger
}

// NewCollection opens the collection stored at path. The file is created
// on first write. A nil allocator means MaxKeyAllocator.
func NewCollection[T any](path string, ids IDAllocator, log *logger.Logger) *Collection[T] {
	if ids == nil {
		ids = MaxKeyAllocator{}
	}
	if log == nil {
		log = logger.Nop()
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Collection[T]{
		path: path,
		name: name,
		ids:  ids,
		log:  log.With("collection", name),
	}
}

// Path returns the backing file.
func (c *Collection[T]) Path() string { return c.path }

// Load returns the whole mapping.
func (c *Collection[T]) Load() (map[string]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Get returns one record.
func (c *Collection[T]) Get(id string) (T, error) {
	var zero T
	m, err := c.Load()
	if err != nil {
		return zero, err
	}
	rec, ok := m[id]
	if !ok {
		return zero, ErrNotFound
	}
	return rec, nil
}

// List returns all records ordered by numeric id.
func (c *Collection[T]) List() ([]Entry[T], error) {
	m, err := c.Load()
	if err != nil {
		return nil, err
	}
	return sortedEntries(m), nil
}

// Insert stores rec under a freshly allocated id.
func (c *Collection[T]) Insert(ctx context.Context, rec T) (string, error) {
	var id string
	err := c.Mutate(func(m map[string]T) error {
		var err error
		id, err = c.ids.Allocate(ctx, c.name, keys(m))
		if err != nil {
			return err
		}
		if _, taken := m[id]; taken {
			return fmt.Errorf("allocated id %s is already in use in %s", id, c.name)
		}
		m[id] = rec
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update applies fn to the record with the given id.
func (c *Collection[T]) Update(id string, fn func(*T) error) (T, error) {
	var out T
	err := c.Mutate(func(m map[string]T) error {
		rec, ok := m[id]
		if !ok {
			return ErrNotFound
		}
		if err := fn(&rec); err != nil {
			return err
		}
		m[id] = rec
		out = rec
		return nil
	})
	return out, err
}

// Delete removes a record and returns it.
func (c *Collection[T]) Delete(id string) (T, error) {
	var out T
	err := c.Mutate(func(m map[string]T) error {
		rec, ok := m[id]
		if !ok {
			return ErrNotFound
		}
		delete(m, id)
		out = rec
		return nil
	})
	return out, err
}

// Mutate loads the mapping, applies fn and saves the result. Nothing is
// written when fn returns an error.
func (c *Collection[T]) Mutate(fn func(map[string]T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := c.load()
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return writeJSON(c.path, m)
}

func (c *Collection[T]) load() (map[string]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}

	m := map[string]T{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		c.log.Warn("corrupt store file, treating as empty", "path", c.path, "error", err)
		return map[string]T{}, nil
	}
	if m == nil {
		// The file held a JSON null.
		m = map[string]T{}
	}
	return m, nil
}

// writeJSON atomically replaces path with the indented encoding of v.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteAtomic(path, data)
}

// WriteAtomic replaces path with data through a temp file in the same
// directory, so readers see either the old or the new content.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func keys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortedEntries[T any](m map[string]T) []Entry[T] {
	out := make([]Entry[T], 0, len(m))
	for k, v := range m {
		out = append(out, Entry[T]{ID: k, Record: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return lessID(out[i].ID, out[j].ID)
	})
	return out
}

// lessID orders numeric ids numerically, ahead of any non-numeric ids.
func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
