// Package todo is the student's to-do list, persisted as one JSON object
// keyed by task id.
package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/studentai/internal/filestore"
	"github.com/abhisek/studentai/internal/logger"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidAction = errors.New("invalid action")
	ErrEmptyTask     = errors.New("task text is required")
)

// Action is a to-do list operation name as sent by clients.
type Action string

const (
	ActionAdd      Action = "add"
	ActionList     Action = "list"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

// ParseAction validates a client-supplied action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAdd, ActionList, ActionComplete, ActionDelete:
		return a, nil
	}
	return "", ErrInvalidAction
}

// Item is a stored task.
type Item struct {
	Task        string `json:"task"`
	CreatedAt   string `json:"created_at"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// Task is an Item with its id, as listed to clients.
type Task struct {
	ID string `json:"id"`
	Item
}

// Service manages the to-do list.
type Service struct {
	items *filestore.Collection[Item]
	log   *logger.Logger
	now   func() time.Time
}

func NewService(path string, ids filestore.IDAllocator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "todo")
	return &Service{
		items: filestore.NewCollection[Item](path, ids, log),
		log:   log,
		now:   time.Now,
	}
}

func (s *Service) stamp() string {
	return s.now().Format(time.RFC3339)
}

// Add stores a new open task and returns its id.
func (s *Service) Add(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTask
	}
	id, err := s.items.Insert(ctx, Item{Task: text, CreatedAt: s.stamp()})
	if err != nil {
		return "", fmt.Errorf("add task: %w", err)
	}
	s.log.Info("task added", "id", id)
	return id, nil
}

// List returns every task in id order.
func (s *Service) List() ([]Task, error) {
	entries, err := s.items.List()
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(entries))
	for _, e := range entries {
		tasks = append(tasks, Task{ID: e.ID, Item: e.Record})
	}
	return tasks, nil
}

// Pending returns the tasks not yet completed.
func (s *Service) Pending() ([]Task, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	open := all[:0]
	for _, t := range all {
		if !t.Completed {
			open = append(open, t)
		}
	}
	return open, nil
}

// Complete marks a task done. Completing twice keeps the first time.
func (s *Service) Complete(id string) error {
	_, err := s.items.Update(id, func(it *Item) error {
		if !it.Completed {
			it.Completed = true
			it.CompletedAt = s.stamp()
		}
		return nil
	})
	if errors.Is(err, filestore.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("task completed", "id", id)
	return nil
}

// Delete removes a task. Its id is not handed out again while a larger
// id is live.
func (s *Service) Delete(id string) error {
	_, err := s.items.Delete(id)
	if errors.Is(err, filestore.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("task deleted", "id", id)
	return nil
}
