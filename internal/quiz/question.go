// Package quiz generates quizzes with the LLM, parses the tagged text
// protocol the model answers in, and grades submissions.
package quiz

import (
	"encoding/json"
	"strings"
)

// Type is the kind of question, as written after the TYPE: tag.
type Type string

const (
	TypeMCQ   Type = "MCQ"
	TypeTF    Type = "TF"
	TypeShort Type = "SHORT"
)

// Question is one parsed quiz question. It is never modified after parsing.
type Question struct {
	// Type is normalized to MCQ, TF or SHORT when recognized. Unknown tags
	// are kept verbatim and graded as SHORT.
	Type Type `json:"type"`

	// Prompt is the question text from the Q: line.
	Prompt string `json:"question"`

	// Answer is the canonical answer from the A: line. Empty when the
	// model left it out.
	Answer string `json:"answer"`

	// Options are the comma separated choices from the OPTIONS: line.
	Options []string `json:"options,omitempty"`

	// Explanation is the EXPLANATION: line, shown as offline feedback.
	Explanation string `json:"explanation,omitempty"`
}

// UnmarshalJSON normalizes the spelling of a submitted type, so a question
// sent back as "tf" or "Multiple Choice" is graded like the parsed one.
func (t *Type) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = normalizeType(raw)
	return nil
}

// normalizeType maps the spellings models use for the type tag onto the
// three known types.
func normalizeType(raw string) Type {
	t := strings.ToUpper(strings.TrimSpace(raw))
	t = strings.Trim(t, "[]()")
	t = strings.TrimSpace(t)
	switch t {
	case "MCQ", "MC", "MULTIPLE CHOICE", "MULTIPLE-CHOICE":
		return TypeMCQ
	case "TF", "T/F", "TRUE/FALSE", "TRUE-FALSE", "TRUE OR FALSE":
		return TypeTF
	case "SHORT", "SHORT ANSWER", "SHORT-ANSWER", "SA":
		return TypeShort
	}
	return Type(strings.TrimSpace(raw))
}

// Kind names a requested quiz composition.
type Kind string

const (
	KindMCQ   Kind = "mcq"
	KindTF    Kind = "tf"
	KindShort Kind = "short"
	KindMixed Kind = "mixed"
)

// phrase is how the kind is described to the model. Unknown kinds ask for
// a mix.
func (k Kind) phrase() string {
	switch k {
	case KindMCQ:
		return "multiple choice questions with 4 options each"
	case KindTF:
		return "true/false questions"
	case KindShort:
		return "short answer questions"
	default:
		return "a mix of multiple choice, true/false, and short answer questions"
	}
}
