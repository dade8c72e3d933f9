package notes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/quiz"
	"github.com/abhisek/studentai/internal/transcribe"
)

func newService(t *testing.T, p llm.Provider) *Service {
	t.Helper()
	if p == nil {
		p = llm.NewMockProvider()
	}
	s := NewService(t.TempDir(), p, nil, nil)
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }
	return s
}

func seed(t *testing.T, s *Service, topic string, notes ...string) {
	t.Helper()
	for _, n := range notes {
		_, err := s.Create(context.Background(), topic, n, false)
		require.NoError(t, err)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Data_Structures_notes.txt", FileName("Data Structures"))
	assert.Equal(t, ".._.._etc_notes.txt", FileName("../../etc"))
	assert.Equal(t, "a_b_notes.txt", FileName(`a\b`))
}

func TestCreateAndView(t *testing.T) {
	s := newService(t, nil)

	saved, err := s.Create(context.Background(), "Cell Biology", "Mitochondria produce ATP", false)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09 14:05:00", saved.Timestamp)
	assert.Equal(t, "Mitochondria produce ATP", saved.Text)
	seed(t, s, "Cell Biology", "Ribosomes build proteins")

	raw, err := os.ReadFile(filepath.Join(s.dir, "Cell_Biology_notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09 14:05:00 - Mitochondria produce ATP\n2024-03-09 14:05:00 - Ribosomes build proteins\n", string(raw))

	notes, err := s.View("Cell Biology")
	require.NoError(t, err)
	assert.Equal(t, []Note{
		{ID: 1, Text: "2024-03-09 14:05:00 - Mitochondria produce ATP"},
		{ID: 2, Text: "2024-03-09 14:05:00 - Ribosomes build proteins"},
	}, notes)
}

func TestView_MissingTopic(t *testing.T) {
	notes, err := newService(t, nil).View("Nothing")
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestCreate_Validation(t *testing.T) {
	s := newService(t, nil)
	_, err := s.Create(context.Background(), " ", "x", false)
	assert.ErrorIs(t, err, ErrTopicRequired)
	_, err = s.Create(context.Background(), "t", "\n", false)
	assert.ErrorIs(t, err, ErrEmptyNote)
}

func TestCreate_AIEnhancedIsOneLine(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("- ATP is energy\n\n- Made in mitochondria\n"))
	s := newService(t, mock)

	saved, err := s.Create(context.Background(), "Bio", "atp energy mitocondria", true)
	require.NoError(t, err)
	assert.True(t, saved.Enhanced)
	assert.Equal(t, "- ATP is energy - Made in mitochondria", saved.Text)
	assert.Contains(t, mock.LastPrompt(), "Improve and organize this note for a student studying Bio:")
	assert.Contains(t, mock.LastPrompt(), "Note: atp energy mitocondria")

	notes, err := s.View("Bio")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestCreate_AIFailureKeepsOriginal(t *testing.T) {
	s := newService(t, llm.NewMockProvider(llm.MockError(&llm.ErrRateLimit{})))

	saved, err := s.Create(context.Background(), "Bio", "raw note", true)
	require.NoError(t, err)
	assert.Equal(t, "raw note", saved.Text)
}

func TestEdit(t *testing.T) {
	s := newService(t, nil)
	seed(t, s, "Math", "first", "second")
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	saved, err := s.Edit(context.Background(), "Math", 2, "updated", false)
	require.NoError(t, err)
	assert.Equal(t, "updated", saved.Text)

	notes, err := s.View("Math")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09 14:05:00 - first", notes[0].Text)
	assert.Equal(t, "2025-01-02 03:04:05 - updated", notes[1].Text)

	for _, id := range []int{0, 3, -1} {
		_, err := s.Edit(context.Background(), "Math", id, "x", false)
		assert.ErrorIs(t, err, ErrInvalidNoteID, "id %d", id)
	}
	_, err = s.Edit(context.Background(), "Physics", 1, "x", false)
	assert.ErrorIs(t, err, ErrNoNotes)
}

// hookProvider calls before ahead of every model call.
type hookProvider struct {
	*llm.MockProvider
	before func()
}

func (h hookProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	h.before()
	return h.MockProvider.Generate(ctx, req)
}

func TestEdit_DeleteDuringEnhanceIsRejected(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetFallback(llm.MockText("polished"))
	h := hookProvider{MockProvider: mock}
	s := newService(t, h)
	seed(t, s, "Math", "a", "b", "c")

	var once sync.Once
	h.before = func() {
		once.Do(func() { require.NoError(t, s.Delete("Math", 1)) })
	}
	s.provider = h

	_, err := s.Edit(context.Background(), "Math", 2, "new b", true)
	assert.ErrorIs(t, err, ErrInvalidNoteID)

	notes, err := s.View("Math")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.True(t, strings.HasSuffix(notes[0].Text, " - b"), notes[0].Text)
	assert.True(t, strings.HasSuffix(notes[1].Text, " - c"), notes[1].Text)
}

func TestDelete(t *testing.T) {
	s := newService(t, nil)
	seed(t, s, "Math", "a", "b", "c")

	require.NoError(t, s.Delete("Math", 2))
	notes, err := s.View("Math")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.True(t, strings.HasSuffix(notes[1].Text, " - c"))
	assert.Equal(t, 2, notes[1].ID, "ids follow line numbers")

	assert.ErrorIs(t, s.Delete("Math", 3), ErrInvalidNoteID)
	assert.ErrorIs(t, s.Delete("Math", 0), ErrInvalidNoteID)
	assert.ErrorIs(t, s.Delete("Nope", 1), ErrNoNotes)
}

func TestSearch(t *testing.T) {
	s := newService(t, nil)
	seed(t, s, "Chem", "Covalent BONDS share electrons", "Ionic bonds transfer electrons", "pH scale")

	notes, err := s.Search("Chem", "bonds")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, 1, notes[0].ID)
	assert.Equal(t, 2, notes[1].ID)

	notes, err = s.Search("Chem", "PH")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, 3, notes[0].ID)

	notes, err = s.Search("Missing", "x")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestConcurrentCreates(t *testing.T) {
	s := newService(t, nil)
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(context.Background(), "Busy", "note", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	notes, err := s.View("Busy")
	require.NoError(t, err)
	assert.Len(t, notes, 20)
}

func TestSummarize(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Summary: cells."))
	s := newService(t, mock)

	_, err := s.Summarize(context.Background(), "Bio")
	assert.ErrorIs(t, err, ErrNoNotes)

	require.NoError(t, os.WriteFile(s.path("Blank"), []byte("\n  \n"), 0o644))
	_, err = s.Summarize(context.Background(), "Blank")
	assert.ErrorIs(t, err, ErrNothingToSummarize)
	assert.Zero(t, mock.CallCount())

	seed(t, s, "Bio", "cells are small")
	got, err := s.Summarize(context.Background(), "Bio")
	require.NoError(t, err)
	assert.Equal(t, "Summary: cells.", got)
	assert.Contains(t, mock.LastPrompt(), "Summarize these study notes for Bio:\n\n2024-03-09 14:05:00 - cells are small")
}

func TestAsk(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("ATP is the energy currency."))
	s := newService(t, mock)

	_, err := s.Ask(context.Background(), "Bio", "What is ATP?")
	assert.ErrorIs(t, err, ErrNoNotes)

	seed(t, s, "Bio", "ATP stores energy")
	got, err := s.Ask(context.Background(), "Bio", "What is ATP?")
	require.NoError(t, err)
	assert.Equal(t, "ATP is the energy currency.", got)
	assert.Contains(t, mock.LastPrompt(), "Question: What is ATP?")
}

func TestFlashcards_Structured(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(`{"flashcards":[{"front":"ATP","back":"Energy currency"},{"front":"DNA","back":"Genetic code"}]}`))
	s := newService(t, mock)
	seed(t, s, "Bio", "ATP and DNA")

	cards, err := s.Flashcards(context.Background(), "Bio")
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{{"ATP", "Energy currency"}, {"DNA", "Genetic code"}}, cards)

	req := mock.Calls[0]
	require.NotNil(t, req.Schema)
	assert.Equal(t, "notes-flashcards", req.Schema.Name)
	assert.Contains(t, mock.LastPrompt(), "create 10 flashcards")
}

func TestFlashcards_TextFallback(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Here you go:\nFRONT: ATP\nBACK: Energy currency\nFRONT: DNA\n"))
	s := newService(t, mock)
	seed(t, s, "Bio", "ATP and DNA")

	cards, err := s.Flashcards(context.Background(), "Bio")
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{{"ATP", "Energy currency"}, {"DNA", ""}}, cards)
}

func TestFlashcards_Unusable(t *testing.T) {
	s := newService(t, llm.NewMockProvider(llm.MockText("I can't do that.")))
	seed(t, s, "Bio", "x")

	_, err := s.Flashcards(context.Background(), "Bio")
	var invalid *llm.ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)

	_, err = s.Flashcards(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrNoNotes)
}

func TestFlashcards_SchemaMismatchNamesCard(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(`{"flashcards":[{"front":"ATP","back":"energy"},{"front":"DNA"}]}`))
	s := newService(t, mock)
	seed(t, s, "Bio", "ATP and DNA")

	_, err := s.Flashcards(context.Background(), "Bio")
	var invalid *llm.ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "notes-flashcards", invalid.Schema)
	assert.Equal(t, "/flashcards/1", invalid.Location)
}

func TestParseFlashcards(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Flashcard
	}{
		{"empty", "", []Flashcard{}},
		{"pairs", "FRONT: a\nBACK: b\n\nFRONT: c\nBACK: d", []Flashcard{{"a", "b"}, {"c", "d"}}},
		{"back before front ignored", "BACK: orphan\nFRONT: a\nBACK: b", []Flashcard{{"a", "b"}}},
		{"indented", "  FRONT:  a  \n\tBACK: b", []Flashcard{{"a", "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFlashcards(tt.text))
		})
	}
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

func TestCreateFromAudio(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Enzymes speed up reactions (Audio: Bio_Chem_2024-03-09_14-05-00_voice_note.wav)"))
	s := newService(t, mock)
	s.transcriber = fakeTranscriber{text: "enzymes speed up reactions"}

	saved, err := s.CreateFromAudio(context.Background(), "Bio Chem", []byte("RIFF"), "audio/wav")
	require.NoError(t, err)
	assert.True(t, saved.Enhanced)
	assert.Contains(t, mock.LastPrompt(), "Note: enzymes speed up reactions (Audio: Bio_Chem_2024-03-09_14-05-00_voice_note.wav)")

	audio, err := os.ReadFile(filepath.Join(s.dir, "audio", "Bio_Chem_2024-03-09_14-05-00_voice_note.wav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), audio)
}

func TestCreateFromAudio_Failures(t *testing.T) {
	s := newService(t, nil)
	_, err := s.CreateFromAudio(context.Background(), "Bio", []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, ErrNoTranscriber)

	s.transcriber = fakeTranscriber{err: transcribe.ErrNoSpeech}
	_, err = s.CreateFromAudio(context.Background(), "Bio", []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, transcribe.ErrNoSpeech)

	notes, err := s.View("Bio")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestAudioExt(t *testing.T) {
	assert.Equal(t, ".wav", audioExt("audio/wav"))
	assert.Equal(t, ".mp3", audioExt("audio/mpeg"))
	assert.Equal(t, ".ogg", audioExt("audio/ogg; codecs=opus"))
	assert.Equal(t, ".bin", audioExt(""))
}

var _ quiz.NotesSource = (*Service)(nil)

func TestContent_Missing(t *testing.T) {
	_, err := newService(t, nil).Content("x")
	assert.True(t, errors.Is(err, ErrNoNotes))
}
