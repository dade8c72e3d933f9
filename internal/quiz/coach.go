package quiz

import (
	"context"

	"github.com/abhisek/studentai/internal/llm"
)

const masteredMessage = "Excellent! You've mastered this topic. Consider moving to advanced topics or helping others learn."

// Practice asks the model for five practice questions on the weak areas,
// in Q:/A:/HINT: form. The text is returned unparsed.
func (e *Evaluator) Practice(ctx context.Context, topic string, weakAreas []string) (string, error) {
	return llm.Complete(ctx, e.provider, "quiz.practice", buildPracticePrompt(topic, weakAreas))
}

// Recommendations suggests how to study the questions that were missed.
// A perfect result gets a fixed message without calling the model.
func (e *Evaluator) Recommendations(ctx context.Context, results []GradedAnswer) (string, error) {
	var struggled []string
	for _, r := range results {
		if !r.Correct {
			struggled = append(struggled, r.Question)
		}
	}
	if len(struggled) == 0 {
		return masteredMessage, nil
	}
	return llm.Complete(ctx, e.provider, "quiz.recommendations", buildRecommendationsPrompt(struggled))
}
