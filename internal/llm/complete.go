package llm

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxTokens bounds free-text completions. Thinking models spend
// part of this budget before emitting text.
const DefaultMaxTokens = 8192

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// Complete sends a single user prompt and returns the completion text.
// purpose labels the call in the event log.
func Complete(ctx context.Context, p Provider, purpose, prompt string) (string, error) {
	resp, err := p.Generate(WithPurpose(ctx, purpose), Request{
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: DefaultMaxTokens,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &ErrInvalidResponse{Err: fmt.Errorf("empty completion for %s", purpose)}
	}
	return text, nil
}
