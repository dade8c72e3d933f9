package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/abhisek/studentai/internal/logger"
)

// JSONList is an append-only list in one JSON array file that keeps only
// the newest entries up to a limit.
type JSONList[T any] struct {
	mu    sync.Mutex
	path  string
	limit int
	log   *logger.Logger
}

// NewJSONList opens the list at path. limit <= 0 means unbounded.
func NewJSONList[T any](path string, limit int, log *logger.Logger) *JSONList[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &JSONList[T]{path: path, limit: limit, log: log.With("list", path)}
}

// Append adds item and trims the oldest entries beyond the limit.
func (l *JSONList[T]) Append(item T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load()
	if err != nil {
		return err
	}
	items = append(items, item)
	if l.limit > 0 && len(items) > l.limit {
		items = items[len(items)-l.limit:]
	}
	return writeJSON(l.path, items)
}

// All returns the list, oldest first.
func (l *JSONList[T]) All() ([]T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *JSONList[T]) load() ([]T, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		l.log.Warn("corrupt list file, treating as empty", "error", err)
		return nil, nil
	}
	return items, nil
}
