// Package translate rewrites search queries into another language before
// they are turned into search URLs.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
)

// Translator translates text into the target language. Target is a
// language code such as "es" or "ur".
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// LLMTranslator asks the model for a bare translation.
type LLMTranslator struct {
	provider llm.Provider
	log      *logger.Logger
}

func NewLLMTranslator(provider llm.Provider, log *logger.Logger) *LLMTranslator {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMTranslator{provider: provider, log: log.With("service", "translate")}
}

// Translate returns text unchanged when target or text is blank.
func (t *LLMTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" || strings.TrimSpace(text) == "" {
		return text, nil
	}
	out, err := llm.Complete(ctx, t.provider, "translate", buildPrompt(text, target))
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", target, err)
	}
	// Models sometimes quote the answer.
	out = strings.Trim(out, "\"'`")
	t.log.Debug("query translated", "target", target, "from", text, "to", out)
	return out, nil
}

func buildPrompt(text, target string) string {
	return fmt.Sprintf("Translate the following text into the language with code %q. "+
		"Detect the source language automatically. Return only the translated text on a single line, "+
		"without quotes, notes or alternatives.\n\nText: %s", target, text)
}
