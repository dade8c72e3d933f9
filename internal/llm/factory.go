package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/studentai/internal/logger"
	"github.com/abhisek/studentai/internal/store"
)

// Deps are the optional collaborators of the middleware chain.
type Deps struct {
	Events store.EventRepo
	Cache  ResponseCache
	Log    *logger.Logger
}

// NewProvider creates a Provider from configuration, wrapped as
// caller → timeout → cache → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, deps Deps) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		mock := NewMockProvider()
		mock.SetFallback(MockText("This is a canned response from the mock provider."))
		base = mock
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, cfg.Provider, deps.Events, deps.Log)
	p = WithRetry(p, cfg.Retry)
	if deps.Cache != nil && cfg.CacheTTL > 0 {
		p = WithCache(p, deps.Cache, cfg.CacheTTL, deps.Log)
	}
	return WithTimeout(p, cfg.Timeout), nil
}
