package quiz

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
)

// feedbackWorkers bounds concurrent feedback requests for one quiz.
const feedbackWorkers = 4

const evaluationFailed = "Error evaluating answer"

// GradedAnswer is the outcome for one submitted answer.
type GradedAnswer struct {
	Number    int    `json:"question_num"` // 1-based position in the quiz
	Question  string `json:"question"`
	Type      Type   `json:"type"`
	Submitted string `json:"user_answer"`
	Canonical string `json:"correct_answer"`
	Correct   bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// Result is a graded quiz.
type Result struct {
	Score           int            `json:"score"`
	Total           int            `json:"total"`
	Percentage      float64        `json:"percentage"`
	Results         []GradedAnswer `json:"results"`
	OverallFeedback string         `json:"overall_feedback"`
}

// Evaluator grades answers and asks the model for feedback.
type Evaluator struct {
	provider llm.Provider
	grader   Grader
	log      *logger.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(provider llm.Provider, grader Grader, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{provider: provider, grader: grader, log: log.With("service", "quiz-eval")}
}

// EvaluateAnswer grades one answer. With withFeedback the model writes
// the feedback; otherwise the question's explanation is used, or a plain
// verdict when there is none. A model failure keeps the grade and falls
// back to the offline feedback. It never fails: a panic while grading
// reports the answer as incorrect.
func (e *Evaluator) EvaluateAnswer(ctx context.Context, q Question, submitted string, withFeedback bool) (ga GradedAnswer) {
	ga = GradedAnswer{
		Question:  q.Prompt,
		Type:      q.Type,
		Submitted: submitted,
		Canonical: q.Answer,
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("grading panicked", "question", q.Prompt, "panic", fmt.Sprint(r))
			ga.Correct = false
			ga.Feedback = evaluationFailed
		}
	}()

	ga.Correct = e.grader.Grade(q, submitted)
	ga.Feedback = offlineFeedback(q, ga.Correct)

	if withFeedback {
		text, err := llm.Complete(ctx, e.provider, "quiz.feedback", buildFeedbackPrompt(q, submitted, ga.Correct))
		if err != nil {
			e.log.Warn("feedback unavailable, using offline feedback", "error", err)
		} else {
			ga.Feedback = text
		}
	}
	return ga
}

func offlineFeedback(q Question, correct bool) string {
	switch {
	case q.Explanation != "":
		return q.Explanation
	case correct:
		return "Correct!"
	default:
		return "The correct answer is: " + q.Answer
	}
}

// EvaluateQuiz grades every question with model feedback. A missing answer
// is graded as an empty submission.
func (e *Evaluator) EvaluateQuiz(ctx context.Context, questions []Question, answers []string) *Result {
	results := make([]GradedAnswer, len(questions))

	sem := make(chan struct{}, feedbackWorkers)
	var wg sync.WaitGroup
	for i, q := range questions {
		var submitted string
		if i < len(answers) {
			submitted = answers[i]
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			ga := e.EvaluateAnswer(ctx, q, submitted, true)
			ga.Number = i + 1
			results[i] = ga
		}()
	}
	wg.Wait()

	res := &Result{Total: len(questions), Results: results}
	var missed []string
	for _, r := range results {
		if r.Correct {
			res.Score++
		} else {
			missed = append(missed, r.Question)
		}
	}
	if res.Total > 0 {
		res.Percentage = float64(res.Score) / float64(res.Total) * 100
	}
	res.OverallFeedback = e.overallFeedback(ctx, res.Percentage, missed)
	return res
}

func (e *Evaluator) overallFeedback(ctx context.Context, percentage float64, missed []string) string {
	text, err := llm.Complete(ctx, e.provider, "quiz.overall", buildOverallPrompt(percentage, missed))
	if err == nil {
		return text
	}
	e.log.Warn("overall feedback unavailable, using banded message", "error", err)
	return bandedFeedback(percentage)
}

func bandedFeedback(percentage float64) string {
	switch {
	case percentage >= 90:
		return "Excellent work! Keep up the great study habits."
	case percentage >= 70:
		return "Good job! Review the missed topics and you'll master them."
	case percentage >= 50:
		return "You're making progress. Focus on understanding core concepts."
	default:
		return "Keep studying! Review your notes and try practice questions."
	}
}
