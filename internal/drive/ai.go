package drive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/studentai/internal/llm"
)

// analyzePreview is how many characters of a file the model sees.
const analyzePreview = 3000

// StudyPlan drafts a semester study plan for the given subjects.
func (s *Service) StudyPlan(ctx context.Context, semester int, degree string, subjects []string) (string, error) {
	if semester < 1 {
		return "", ErrInvalidSemester
	}
	return llm.Complete(ctx, s.provider, "drive.study_plan", fmt.Sprintf(`Create a study plan for a %s student in semester %d.

Subjects: %s

Provide:
1. Weekly study schedule
2. Topic prioritization for each subject
3. Study techniques for each subject type
4. Time management tips
5. Resource recommendations

Keep it practical and actionable.`, degree, semester, strings.Join(subjects, ", ")))
}

// Analyze summarises a local text file. Links and cloud files are
// rejected; only the first part of a long file is sent.
func (s *Service) Analyze(ctx context.Context, id string) (string, error) {
	f, err := s.Info(id)
	if err != nil {
		return "", err
	}
	switch {
	case f.IsExternal:
		return "", ErrCannotAnalyzeLink
	case f.IsCloud:
		return "", ErrCannotAnalyze
	}

	data, err := os.ReadFile(f.URL)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrLocalFileMissing
	}
	if err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}

	content := string(data)
	if utf8.RuneCountInString(content) > analyzePreview {
		content = string([]rune(content)[:analyzePreview])
	}

	analysis, err := llm.Complete(ctx, s.provider, "drive.analyze", fmt.Sprintf(`Analyze this study material for %s:

%s

Provide:
1. Main topics covered
2. Key concepts to focus on
3. Difficulty level assessment
4. Study recommendations
5. Related topics to explore`, f.Subject, content))
	if err != nil {
		return "", err
	}
	s.log.Info("file analyzed", "id", id)
	return analysis, nil
}
