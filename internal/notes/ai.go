package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/studentai/internal/llm"
)

// Enhance asks the model to clean up a note. Any failure returns the text
// unchanged.
func (s *Service) Enhance(ctx context.Context, topic, text string) string {
	out, err := llm.Complete(ctx, s.provider, "notes.enhance", fmt.Sprintf(`Improve and organize this note for a student studying %s:

Note: %s

Please:
1. Correct any grammar or spelling errors
2. Format it clearly with bullet points if appropriate
3. Add relevant key concepts if missing
4. Keep it concise and study-friendly
5. Preserve all important information

Return only the improved note without extra commentary.`, topic, text))
	if err != nil {
		s.log.Error("AI enhancement failed, keeping original note", "topic", topic, "error", err)
		return text
	}
	return out
}

// Summarize writes an exam-review summary of every note in the topic.
func (s *Service) Summarize(ctx context.Context, topic string) (string, error) {
	notes, err := s.Content(topic)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(notes) == "" {
		return "", ErrNothingToSummarize
	}
	return llm.Complete(ctx, s.provider, "notes.summarize", fmt.Sprintf(`Summarize these study notes for %s:

%s

Create a comprehensive summary that includes:
1. Main topics covered
2. Key concepts and definitions
3. Important points to remember
4. Quick review points
5. Study tips based on the content

Format it in a clear, organized way that's easy to review before exams.`, topic, notes))
}

// Ask answers a question using the topic's notes, falling back to general
// knowledge where the notes are silent.
func (s *Service) Ask(ctx context.Context, topic, question string) (string, error) {
	notes, err := s.Content(topic)
	if err != nil {
		return "", err
	}
	return llm.Complete(ctx, s.provider, "notes.ask", fmt.Sprintf(`Based on these study notes for %s:

%s

Question: %s

Provide a clear, educational answer based on the notes. If the notes don't contain enough information, mention that and provide general knowledge about the topic.`, topic, notes, question))
}

// Flashcard is one card of a generated deck.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

const flashcardCount = 10

var deckSchema = &llm.Schema{
	Name:        "notes-flashcards",
	Description: "A deck of study flashcards built from a student's notes",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flashcards": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"front": map[string]any{"type": "string", "description": "Question or term", "minLength": 1},
						"back":  map[string]any{"type": "string", "description": "Answer or definition"},
					},
					"required": []any{"front", "back"},
				},
			},
		},
		"required": []any{"flashcards"},
	},
}

// Flashcards builds a deck of ten cards from the topic's notes. The model
// is asked for structured output; a reply that ignores the schema but uses
// FRONT:/BACK: lines is still accepted.
func (s *Service) Flashcards(ctx context.Context, topic string) ([]Flashcard, error) {
	notes, err := s.Content(topic)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Based on these notes for %s, create %d flashcards:

%s

Format each flashcard as:
FRONT: [question or term]
BACK: [answer or definition]

Focus on key concepts, definitions, and important facts.`, topic, flashcardCount, notes)

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, "notes.flashcards"), llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:    deckSchema,
		MaxTokens: llm.DefaultMaxTokens,
	})
	var invalid *llm.ErrInvalidResponse
	switch {
	case errors.As(err, &invalid):
		cards := ParseFlashcards(string(invalid.Content))
		if len(cards) == 0 {
			return nil, err
		}
		s.log.Warn("flashcards returned as text, parsed FRONT/BACK lines",
			"topic", topic, "cards", len(cards), "location", invalid.Location, "reason", invalid.Err)
		return cards, nil
	case err != nil:
		return nil, err
	}

	var deck struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	if err := json.Unmarshal(resp.Content, &deck); err != nil {
		return nil, fmt.Errorf("decode flashcards: %w", err)
	}
	if deck.Flashcards == nil {
		deck.Flashcards = []Flashcard{}
	}
	s.log.Info("flashcards generated", "topic", topic, "cards", len(deck.Flashcards))
	return deck.Flashcards, nil
}

// ParseFlashcards reads FRONT:/BACK: pairs. A FRONT: line starts a new
// card; a card whose BACK: never arrives is kept with an empty back.
func ParseFlashcards(text string) []Flashcard {
	cards := []Flashcard{}
	var cur *Flashcard
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "FRONT:"):
			if cur != nil {
				cards = append(cards, *cur)
			}
			cur = &Flashcard{Front: strings.TrimSpace(line[len("FRONT:"):])}
		case strings.HasPrefix(line, "BACK:") && cur != nil:
			cur.Back = strings.TrimSpace(line[len("BACK:"):])
		}
	}
	if cur != nil {
		cards = append(cards, *cur)
	}
	return cards
}
