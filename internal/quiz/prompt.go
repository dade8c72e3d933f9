package quiz

import (
	"fmt"
	"strings"
)

const formatInstructions = `For each question, format as:
TYPE: [MCQ/TF/SHORT]
Q: [question text]
A: [correct answer]
OPTIONS: [for MCQ: option1, option2, option3, option4]
EXPLANATION: [brief explanation of the answer]`

func buildNotesPrompt(in GenerateInput, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on these study notes for %s, generate %d %s difficulty %s:\n\n",
		in.Topic, in.Count, in.Difficulty, in.Kind.phrase())
	b.WriteString(notes)
	b.WriteString("\n\n")
	b.WriteString(formatInstructions)
	b.WriteString("\n\nRequirements:\n")
	b.WriteString("- Test understanding, not just memorization\n")
	fmt.Fprintf(&b, "- Difficulty level: %s\n", in.Difficulty)
	b.WriteString("- Cover different parts of the notes\n")
	b.WriteString("- Clear, unambiguous questions\n")
	b.WriteString("- For MCQ, make distractors plausible")
	return b.String()
}

func buildTopicPrompt(in GenerateInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d %s difficulty %s about %s.\n\n",
		in.Count, in.Difficulty, in.Kind.phrase(), in.Topic)
	b.WriteString(formatInstructions)
	b.WriteString("\n\nRequirements:\n")
	fmt.Fprintf(&b, "- Cover key concepts in %s\n", in.Topic)
	b.WriteString("- Test understanding and application\n")
	fmt.Fprintf(&b, "- Difficulty level: %s\n", in.Difficulty)
	b.WriteString("- Clear, educational questions\n")
	b.WriteString("- For MCQ, make distractors plausible but clearly wrong")
	return b.String()
}

func buildFeedbackPrompt(q Question, submitted string, correct bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.Prompt)
	fmt.Fprintf(&b, "Student's Answer: %s\n", submitted)
	fmt.Fprintf(&b, "Correct Answer: %s\n", q.Answer)
	fmt.Fprintf(&b, "Question Type: %s\n\n", q.Type)
	b.WriteString("Provide brief, encouraging feedback (2-3 sentences) that:\n")
	if correct {
		b.WriteString("- Praises the correct answer and reinforces the concept\n")
		b.WriteString("- Mentions a related concept or application\n")
	} else {
		b.WriteString("- Explains why the answer is incorrect\n")
		b.WriteString("- Explains the key concept\n")
	}
	b.WriteString("- Is supportive and educational")
	return b.String()
}

// maxMissedInOverall caps how many missed questions the overall feedback
// prompt lists.
const maxMissedInOverall = 3

func buildOverallPrompt(percentage float64, missed []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A student scored %.1f%% on a quiz.\n\n", percentage)
	if len(missed) == 0 {
		b.WriteString("All questions answered correctly!\n")
	} else {
		b.WriteString("Areas needing improvement:\n")
		writeBullets(&b, missed[:min(len(missed), maxMissedInOverall)])
	}
	b.WriteString("\nProvide:\n")
	b.WriteString("1. Brief performance assessment (1 sentence)\n")
	b.WriteString("2. Specific study recommendations (2-3 points)\n")
	b.WriteString("3. Encouragement and next steps (1 sentence)\n\n")
	b.WriteString("Be supportive and constructive.")
	return b.String()
}

func buildPracticePrompt(topic string, weakAreas []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate 5 practice questions for %s, focusing on these weak areas:\n\n", topic)
	b.WriteString(strings.Join(weakAreas, ", "))
	b.WriteString("\n\nFormat as:\nQ: [question]\nA: [answer]\nHINT: [helpful hint]\n\n")
	b.WriteString("Make questions progressively easier to build confidence.")
	return b.String()
}

func buildRecommendationsPrompt(struggled []string) string {
	var b strings.Builder
	b.WriteString("A student struggled with these questions:\n\n")
	writeBullets(&b, struggled)
	b.WriteString("\nProvide:\n")
	b.WriteString("1. Specific study strategies for these topics\n")
	b.WriteString("2. Resources or methods to use\n")
	b.WriteString("3. Practice recommendations\n")
	b.WriteString("4. Timeline suggestion\n\n")
	b.WriteString("Be practical and encouraging.")
	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
