package quiz

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultShortAnswerThreshold is the similarity a short answer must
// exceed to count as correct.
const DefaultShortAnswerThreshold = 0.7

// Grader decides whether a submission matches a question's answer.
type Grader struct {
	// Threshold is the exclusive lower bound on SimilarityRatio for short
	// answers. Zero means DefaultShortAnswerThreshold.
	Threshold float64
}

// Grade reports whether submitted is a correct answer to q.
func (g Grader) Grade(q Question, submitted string) bool {
	switch q.Type {
	case TypeTF:
		return gradeTrueFalse(submitted, q.Answer)
	case TypeMCQ:
		return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(q.Answer))
	default:
		return SimilarityRatio(submitted, q.Answer) > g.threshold()
	}
}

func (g Grader) threshold() float64 {
	if g.Threshold > 0 {
		return g.Threshold
	}
	return DefaultShortAnswerThreshold
}

// Grade grades with the default threshold.
func Grade(q Question, submitted string) bool {
	return Grader{}.Grade(q, submitted)
}

func gradeTrueFalse(submitted, canonical string) bool {
	s, c := truthValue(submitted), truthValue(canonical)
	return s != "" && s == c
}

// truthValue returns "true", "false" or "" for anything else.
func truthValue(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t":
		return "true"
	case "false", "f":
		return "false"
	}
	return ""
}

// SimilarityRatio compares the lowercased, trimmed strings character by
// character and returns 2*M/T, where M is the size of the longest matching
// blocks and T the combined length. Identical strings score 1.
func SimilarityRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
