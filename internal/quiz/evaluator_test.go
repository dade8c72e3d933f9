package quiz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studentai/internal/llm"
)

func failingProvider() *llm.MockProvider {
	m := llm.NewMockProvider()
	m.SetFallback(llm.MockError(&llm.ErrProviderUnavailable{Err: errors.New("offline")}))
	return m
}

func TestEvaluateAnswer_OfflineFeedback(t *testing.T) {
	e := NewEvaluator(llm.NewMockProvider(), Grader{}, nil)
	ctx := context.Background()

	withExplanation := Question{Type: TypeTF, Prompt: "Sky is blue?", Answer: "True", Explanation: "Rayleigh scattering."}
	ga := e.EvaluateAnswer(ctx, withExplanation, "t", false)
	assert.True(t, ga.Correct)
	assert.Equal(t, "Rayleigh scattering.", ga.Feedback)
	assert.Equal(t, "True", ga.Canonical)

	plain := Question{Type: TypeMCQ, Prompt: "2+2?", Answer: "4"}
	assert.Equal(t, "Correct!", e.EvaluateAnswer(ctx, plain, "4", false).Feedback)
	assert.Equal(t, "The correct answer is: 4", e.EvaluateAnswer(ctx, plain, "5", false).Feedback)
}

func TestEvaluateAnswer_ModelFeedback(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Great job! Rayleigh scattering explains it."))
	e := NewEvaluator(mock, Grader{}, nil)

	q := Question{Type: TypeTF, Prompt: "Sky is blue?", Answer: "True"}
	ga := e.EvaluateAnswer(context.Background(), q, "true", true)

	assert.True(t, ga.Correct)
	assert.Equal(t, "Great job! Rayleigh scattering explains it.", ga.Feedback)

	prompt := mock.LastPrompt()
	assert.Contains(t, prompt, "Question: Sky is blue?\nStudent's Answer: true\nCorrect Answer: True\nQuestion Type: TF")
	assert.Contains(t, prompt, "- Praises the correct answer and reinforces the concept")
	assert.NotContains(t, prompt, "Explains why the answer is incorrect")
}

func TestEvaluateAnswer_ModelFailureKeepsGrade(t *testing.T) {
	e := NewEvaluator(failingProvider(), Grader{}, nil)

	ga := e.EvaluateAnswer(context.Background(), Question{Type: TypeMCQ, Prompt: "2+2?", Answer: "4"}, "4", true)
	assert.True(t, ga.Correct)
	assert.Equal(t, "Correct!", ga.Feedback)
}

func TestEvaluateAnswer_PanicReportsIncorrect(t *testing.T) {
	e := NewEvaluator(nil, Grader{}, nil)
	// A nil provider panics when feedback is requested.
	ga := e.EvaluateAnswer(context.Background(), Question{Type: TypeMCQ, Answer: "4"}, "4", true)
	assert.False(t, ga.Correct)
	assert.Equal(t, "Error evaluating answer", ga.Feedback)
	assert.Equal(t, "4", ga.Canonical)
}

func TestEvaluateQuiz(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetFallback(llm.MockText("feedback"))
	e := NewEvaluator(mock, Grader{}, nil)

	questions := []Question{
		{Type: TypeTF, Prompt: "Sky is blue?", Answer: "True"},
		{Type: TypeMCQ, Prompt: "2+2?", Answer: "4"},
		{Type: TypeShort, Prompt: "Capital of France?", Answer: "Paris"},
	}
	res := e.EvaluateQuiz(context.Background(), questions, []string{"T", "5"})

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Score)
	assert.InDelta(t, 33.333, res.Percentage, 0.01)
	require.Len(t, res.Results, 3)
	for i, r := range res.Results {
		assert.Equal(t, i+1, r.Number)
		assert.Equal(t, questions[i].Prompt, r.Question)
		assert.Equal(t, "feedback", r.Feedback)
	}
	assert.Empty(t, res.Results[2].Submitted, "missing answer graded as empty")
	assert.False(t, res.Results[2].Correct)
	assert.Equal(t, "feedback", res.OverallFeedback)

	// Three feedback calls plus the overall assessment.
	assert.Equal(t, 4, mock.CallCount())
	overall := mock.LastPrompt()
	assert.Contains(t, overall, "A student scored 33.3% on a quiz.")
	assert.Contains(t, overall, "Areas needing improvement:\n- 2+2?")
}

func TestEvaluateQuiz_Empty(t *testing.T) {
	res := NewEvaluator(failingProvider(), Grader{}, nil).EvaluateQuiz(context.Background(), nil, nil)
	assert.Zero(t, res.Total)
	assert.Zero(t, res.Percentage)
	assert.Equal(t, "Keep studying! Review your notes and try practice questions.", res.OverallFeedback)
}

func TestBandedFeedback(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "Excellent work! Keep up the great study habits."},
		{90, "Excellent work! Keep up the great study habits."},
		{75, "Good job! Review the missed topics and you'll master them."},
		{50, "You're making progress. Focus on understanding core concepts."},
		{49.9, "Keep studying! Review your notes and try practice questions."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bandedFeedback(tt.pct), "%.1f%%", tt.pct)
	}
}

func TestBuildOverallPrompt_ListsAtMostThree(t *testing.T) {
	p := buildOverallPrompt(20, []string{"q1", "q2", "q3", "q4"})
	assert.Contains(t, p, "- q3\n")
	assert.NotContains(t, p, "q4")

	assert.Contains(t, buildOverallPrompt(100, nil), "All questions answered correctly!")
}

func TestRecommendations(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Review cell biology daily."))
	e := NewEvaluator(mock, Grader{}, nil)

	got, err := e.Recommendations(context.Background(), []GradedAnswer{{Question: "q1", Correct: true}})
	require.NoError(t, err)
	assert.Equal(t, masteredMessage, got)
	assert.Zero(t, mock.CallCount())

	got, err = e.Recommendations(context.Background(), []GradedAnswer{
		{Question: "What is ATP?", Correct: false},
		{Question: "q2", Correct: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Review cell biology daily.", got)
	assert.Contains(t, mock.LastPrompt(), "A student struggled with these questions:\n\n- What is ATP?\n")
	assert.NotContains(t, mock.LastPrompt(), "q2")
}

func TestPractice(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Q: ...\nA: ...\nHINT: ..."))
	got, err := NewEvaluator(mock, Grader{}, nil).Practice(context.Background(), "Algebra", []string{"factoring", "quadratics"})
	require.NoError(t, err)
	assert.Equal(t, "Q: ...\nA: ...\nHINT: ...", got)
	assert.Contains(t, mock.LastPrompt(), "Generate 5 practice questions for Algebra, focusing on these weak areas:\n\nfactoring, quadratics")
}

func TestReportLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "quiz_reports.csv")
	log := NewReportLog(path)
	log.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }

	history, err := log.History()
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, log.Append("Biology", &Result{Score: 2, Total: 3, Percentage: 200.0 / 3}))
	require.NoError(t, log.Append("Math, Advanced", &Result{Score: 5, Total: 5, Percentage: 100}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,topic,score,total,percentage,details", lines[0])
	assert.Equal(t, "2024-03-09 14:05:00,Biology,2,3,66.7%,2/3 correct", lines[1])

	history, err = log.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Math, Advanced", history[1]["topic"])
	assert.Equal(t, "100.0%", history[1]["percentage"])
	assert.Equal(t, "5/5 correct", history[1]["details"])
}
