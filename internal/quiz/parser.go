package quiz

import "strings"

// Parser turns model output into questions. Implementations never fail:
// malformed input yields fewer questions.
type Parser interface {
	Parse(text string) []Question
}

// Tag prefixes of the line protocol.
const (
	tagType        = "TYPE:"
	tagQuestion    = "Q:"
	tagAnswer      = "A:"
	tagOptions     = "OPTIONS:"
	tagExplanation = "EXPLANATION:"
)

// TagParser reads the line protocol
//
//	TYPE: MCQ|TF|SHORT
//	Q: question text
//	A: answer
//	OPTIONS: a, b, c, d
//	EXPLANATION: why
//
// A TYPE: line starts a new question. Fields accumulate until the next
// TYPE: line or the end of the text. Questions without a Q: line are
// dropped and lines without a known tag are ignored. A repeated field
// overwrites the earlier value. A question with no type is SHORT.
type TagParser struct{}

func (TagParser) Parse(text string) []Question {
	var (
		out  []Question
		cur  Question
		hasQ bool
	)
	flush := func() {
		if !hasQ {
			return
		}
		if cur.Type == "" {
			cur.Type = TypeShort
		}
		out = append(out, cur)
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, tagType):
			flush()
			cur = Question{Type: normalizeType(line[len(tagType):])}
			hasQ = false
		case strings.HasPrefix(line, tagQuestion):
			cur.Prompt = strings.TrimSpace(line[len(tagQuestion):])
			hasQ = true
		case strings.HasPrefix(line, tagAnswer):
			cur.Answer = strings.TrimSpace(line[len(tagAnswer):])
		case strings.HasPrefix(line, tagOptions):
			cur.Options = splitOptions(line[len(tagOptions):])
		case strings.HasPrefix(line, tagExplanation):
			cur.Explanation = strings.TrimSpace(line[len(tagExplanation):])
		}
	}
	flush()
	return out
}

func splitOptions(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
