// Package notes keeps per-topic study notes as timestamped text lines and
// layers model-backed helpers (enhance, summarize, ask, flashcards) on top.
//
// Each topic lives in its own file, one note per line:
//
//	2024-03-09 14:05:00 - Mitochondria produce ATP
//
// Note ids are 1-based line numbers, so they shift after a delete.
package notes

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/studentai/internal/filestore"
	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
	"github.com/abhisek/studentai/internal/transcribe"
)

var (
	ErrNoNotes            = errors.New("no notes found for this topic")
	ErrInvalidNoteID      = errors.New("invalid note ID")
	ErrNothingToSummarize = errors.New("no notes to summarize")
	ErrTopicRequired      = errors.New("topic is required")
	ErrEmptyNote          = errors.New("note text is required")
)

const timeLayout = "2006-01-02 15:04:05"

// Note is one line of a topic file.
type Note struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Saved describes a note that was just written.
type Saved struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"enhanced_note"`
	Enhanced  bool   `json:"-"`
}

// Service manages the notes directory. Mutations are serialised by a
// single mutex; edits and deletes replace the topic file atomically.
type Service struct {
	mu          sync.Mutex
	dir         string
	provider    llm.Provider
	transcriber transcribe.Transcriber
	log         *logger.Logger
	now         func() time.Time
}

// NewService creates a Service rooted at dir. The transcriber is only
// needed for voice notes and may be nil.
func NewService(dir string, provider llm.Provider, transcriber transcribe.Transcriber, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		dir:         dir,
		provider:    provider,
		transcriber: transcriber,
		log:         log.With("service", "notes"),
		now:         time.Now,
	}
}

// FileName maps a topic to its file name. Spaces and path separators
// become underscores.
func FileName(topic string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", `\`, "_")
	return r.Replace(topic) + "_notes.txt"
}

func (s *Service) path(topic string) string {
	return filepath.Join(s.dir, FileName(topic))
}

func (s *Service) stamp() string {
	return s.now().Format(timeLayout)
}

// Create appends a note to the topic. With useAI the text is first
// rewritten by the model; a model failure keeps the original text.
func (s *Service) Create(ctx context.Context, topic, text string, useAI bool) (*Saved, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrTopicRequired
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyNote
	}
	if useAI {
		text = s.Enhance(ctx, topic, text)
	}
	text = singleLine(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}
	f, err := os.OpenFile(s.path(topic), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open notes for %s: %w", topic, err)
	}
	defer f.Close()

	ts := s.stamp()
	if _, err := fmt.Fprintf(f, "%s - %s\n", ts, text); err != nil {
		return nil, fmt.Errorf("append note: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close notes file: %w", err)
	}

	s.log.Info("note created", "topic", topic, "ai", useAI)
	return &Saved{Timestamp: ts, Text: text, Enhanced: useAI}, nil
}

// View lists the topic's notes. A topic without a file has no notes.
func (s *Service) View(topic string) ([]Note, error) {
	return s.filter(topic, func(string) bool { return true })
}

// Search lists notes containing keyword, ignoring case.
func (s *Service) Search(topic, keyword string) ([]Note, error) {
	kw := strings.ToLower(keyword)
	return s.filter(topic, func(line string) bool {
		return strings.Contains(strings.ToLower(line), kw)
	})
}

func (s *Service) filter(topic string, keep func(string) bool) ([]Note, error) {
	s.mu.Lock()
	lines, err := s.readLines(topic)
	s.mu.Unlock()

	if errors.Is(err, ErrNoNotes) {
		return []Note{}, nil
	}
	if err != nil {
		return nil, err
	}
	notes := []Note{}
	for i, line := range lines {
		if keep(line) {
			notes = append(notes, Note{ID: i + 1, Text: strings.TrimSpace(line)})
		}
	}
	return notes, nil
}

// Edit replaces note id with new text and a fresh timestamp.
func (s *Service) Edit(ctx context.Context, topic string, id int, text string, useAI bool) (*Saved, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyNote
	}

	s.mu.Lock()
	lines, err := s.readLines(topic)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if id < 1 || id > len(lines) {
		return nil, ErrInvalidNoteID
	}
	original := lines[id-1]

	// The model call happens outside the lock.
	if useAI {
		text = s.Enhance(ctx, topic, text)
	}
	text = singleLine(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err = s.readLines(topic)
	if err != nil {
		return nil, err
	}
	// A delete during the model call shifts ids; never edit whatever
	// slid into this slot.
	if id > len(lines) || lines[id-1] != original {
		return nil, ErrInvalidNoteID
	}
	ts := s.stamp()
	lines[id-1] = ts + " - " + text
	if err := s.writeLines(topic, lines); err != nil {
		return nil, err
	}

	s.log.Info("note edited", "topic", topic, "id", id, "ai", useAI)
	return &Saved{Timestamp: ts, Text: text, Enhanced: useAI}, nil
}

// Delete removes note id. Later notes move up by one.
func (s *Service) Delete(topic string, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines(topic)
	if err != nil {
		return err
	}
	if id < 1 || id > len(lines) {
		return ErrInvalidNoteID
	}
	lines = append(lines[:id-1], lines[id:]...)
	if err := s.writeLines(topic, lines); err != nil {
		return err
	}
	s.log.Info("note deleted", "topic", topic, "id", id)
	return nil
}

// Content returns the raw text of the topic file.
func (s *Service) Content(topic string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(topic))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoNotes
	}
	if err != nil {
		return "", fmt.Errorf("read notes for %s: %w", topic, err)
	}
	return string(data), nil
}

// readLines returns the topic's lines without their newlines. Callers
// hold s.mu.
func (s *Service) readLines(topic string) ([]string, error) {
	data, err := os.ReadFile(s.path(topic))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoNotes
	}
	if err != nil {
		return nil, fmt.Errorf("read notes for %s: %w", topic, err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan notes for %s: %w", topic, err)
	}
	return lines, nil
}

func (s *Service) writeLines(topic string, lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if err := filestore.WriteAtomic(s.path(topic), []byte(b.String())); err != nil {
		return fmt.Errorf("rewrite notes for %s: %w", topic, err)
	}
	return nil
}

// singleLine folds multi-line text into one line so each note stays a
// single line of its file.
func singleLine(text string) string {
	var parts []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}
