package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studentai/internal/llm"
)

var errNoNotes = errors.New("no notes found for this topic")

type notesStub map[string]string

func (n notesStub) Content(topic string) (string, error) {
	c, ok := n[topic]
	if !ok {
		return "", errNoNotes
	}
	return c, nil
}

const twoQuestions = "TYPE: MCQ\nQ: 2+2?\nA: 4\nOPTIONS: 3, 4, 5, 6\nTYPE: SHORT\nQ: Capital of France?\nA: Paris\n"

func TestGenerator_FromTopic(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(twoQuestions))
	g := NewGenerator(mock, nil, nil, nil)

	quiz, err := g.FromTopic(context.Background(), GenerateInput{Topic: "General Knowledge", Count: 2, Kind: KindMCQ})
	require.NoError(t, err)

	assert.Equal(t, "General Knowledge", quiz.Topic)
	assert.Equal(t, "medium", quiz.Difficulty)
	assert.Equal(t, KindMCQ, quiz.Kind)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, []string{"3", "4", "5", "6"}, quiz.Questions[0].Options)

	prompt := mock.LastPrompt()
	assert.Contains(t, prompt, "Generate 2 medium difficulty multiple choice questions with 4 options each about General Knowledge.")
	assert.Contains(t, prompt, "TYPE: [MCQ/TF/SHORT]")
	assert.Contains(t, prompt, "- Cover key concepts in General Knowledge")
}

func TestGenerator_Defaults(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(twoQuestions))
	g := NewGenerator(mock, nil, nil, nil)

	quiz, err := g.FromTopic(context.Background(), GenerateInput{Topic: "Chemistry"})
	require.NoError(t, err)
	assert.Equal(t, KindMixed, quiz.Kind)
	assert.Contains(t, mock.LastPrompt(),
		"Generate 5 medium difficulty a mix of multiple choice, true/false, and short answer questions about Chemistry.")
}

func TestGenerator_CountCapped(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(twoQuestions))
	_, err := NewGenerator(mock, nil, nil, nil).FromTopic(context.Background(), GenerateInput{Topic: "x", Count: 500})
	require.NoError(t, err)
	assert.Contains(t, mock.LastPrompt(), "Generate 25 ")
}

func TestGenerator_FromNotes(t *testing.T) {
	notes := notesStub{
		"Biology": "2024-01-01 10:00:00 - Cells are the basic unit of life\n",
		"Empty":   "  \n",
	}

	t.Run("uses notes", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockText("TYPE: TF\nQ: Cells are the basic unit of life.\nA: True"))
		quiz, err := NewGenerator(mock, notes, nil, nil).FromNotes(context.Background(),
			GenerateInput{Topic: "Biology", Count: 1, Difficulty: "hard", Kind: KindTF})
		require.NoError(t, err)
		require.Len(t, quiz.Questions, 1)

		prompt := mock.LastPrompt()
		assert.Contains(t, prompt, "Based on these study notes for Biology, generate 1 hard difficulty true/false questions:")
		assert.Contains(t, prompt, "Cells are the basic unit of life")
		assert.Contains(t, prompt, "- Cover different parts of the notes")
	})

	t.Run("missing notes", func(t *testing.T) {
		mock := llm.NewMockProvider()
		_, err := NewGenerator(mock, notes, nil, nil).FromNotes(context.Background(), GenerateInput{Topic: "Physics"})
		assert.ErrorIs(t, err, errNoNotes)
		assert.Zero(t, mock.CallCount())
	})

	t.Run("blank notes", func(t *testing.T) {
		mock := llm.NewMockProvider()
		_, err := NewGenerator(mock, notes, nil, nil).FromNotes(context.Background(), GenerateInput{Topic: "Empty"})
		assert.ErrorIs(t, err, ErrEmptyNotes)
		assert.Zero(t, mock.CallCount())
	})
}

func TestGenerator_UnparseableReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Sorry, I can't make a quiz about that."))
	_, err := NewGenerator(mock, nil, nil, nil).FromTopic(context.Background(), GenerateInput{Topic: "x"})
	assert.ErrorIs(t, err, ErrEmptyQuiz)
}

func TestGenerator_ProviderFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockError(&llm.ErrProviderUnavailable{Err: errors.New("down")}))
	_, err := NewGenerator(mock, nil, nil, nil).FromTopic(context.Background(), GenerateInput{Topic: "x"})
	var unavail *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

type fixedParser []Question

func (p fixedParser) Parse(string) []Question { return p }

func TestGenerator_CustomParser(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("anything"))
	parser := fixedParser{{Type: TypeShort, Prompt: "p", Answer: "a"}}

	quiz, err := NewGenerator(mock, nil, parser, nil).FromTopic(context.Background(), GenerateInput{Topic: "x"})
	require.NoError(t, err)
	assert.Equal(t, []Question(parser), quiz.Questions)
}
