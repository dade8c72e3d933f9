package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
)

var (
	// ErrEmptyQuiz means the model output held no parseable question.
	ErrEmptyQuiz = errors.New("failed to generate quiz")

	// ErrEmptyNotes means the topic's notes file exists but is blank.
	ErrEmptyNotes = errors.New("notes are empty")
)

const (
	defaultCount      = 5
	maxCount          = 25
	defaultDifficulty = "medium"
)

// NotesSource reads the raw notes text of a topic.
type NotesSource interface {
	Content(topic string) (string, error)
}

// GenerateInput describes the quiz to generate. Zero values pick the
// defaults: five medium questions of mixed kinds.
type GenerateInput struct {
	Topic      string
	Count      int
	Difficulty string
	Kind       Kind
}

func (in GenerateInput) withDefaults() GenerateInput {
	if in.Count <= 0 {
		in.Count = defaultCount
	}
	in.Count = min(in.Count, maxCount)
	if strings.TrimSpace(in.Difficulty) == "" {
		in.Difficulty = defaultDifficulty
	}
	if in.Kind == "" {
		in.Kind = KindMixed
	}
	return in
}

// Quiz is a generated question set.
type Quiz struct {
	Topic      string     `json:"topic"`
	Difficulty string     `json:"difficulty"`
	Kind       Kind       `json:"type"`
	Questions  []Question `json:"questions"`
}

// Generator asks the model for quizzes and parses the reply.
type Generator struct {
	provider llm.Provider
	notes    NotesSource
	parser   Parser
	log      *logger.Logger
}

// NewGenerator creates a Generator. A nil parser means TagParser.
func NewGenerator(provider llm.Provider, notes NotesSource, parser Parser, log *logger.Logger) *Generator {
	if parser == nil {
		parser = TagParser{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{provider: provider, notes: notes, parser: parser, log: log.With("service", "quiz")}
}

// FromTopic generates a quiz on a topic from the model's own knowledge.
func (g *Generator) FromTopic(ctx context.Context, in GenerateInput) (*Quiz, error) {
	in = in.withDefaults()
	return g.generate(ctx, in, "quiz.from-topic", buildTopicPrompt(in))
}

// FromNotes generates a quiz grounded in the topic's saved notes.
func (g *Generator) FromNotes(ctx context.Context, in GenerateInput) (*Quiz, error) {
	in = in.withDefaults()
	content, err := g.notes.Content(in.Topic)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyNotes
	}
	return g.generate(ctx, in, "quiz.from-notes", buildNotesPrompt(in, content))
}

func (g *Generator) generate(ctx context.Context, in GenerateInput, purpose, prompt string) (*Quiz, error) {
	text, err := llm.Complete(ctx, g.provider, purpose, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	questions := g.parser.Parse(text)
	if len(questions) == 0 {
		g.log.Warn("model reply held no questions", "topic", in.Topic, "reply_len", len(text))
		return nil, ErrEmptyQuiz
	}
	g.log.Info("quiz generated", "topic", in.Topic, "questions", len(questions), "kind", in.Kind)

	return &Quiz{
		Topic:      in.Topic,
		Difficulty: in.Difficulty,
		Kind:       in.Kind,
		Questions:  questions,
	}, nil
}
