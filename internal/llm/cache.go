package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/abhisek/studentai/internal/logger"
)

// ResponseCache stores completion text by key. Implementations live in
// the cache package.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachingProvider serves repeated identical requests from a ResponseCache.
type CachingProvider struct {
	inner Provider
	cache ResponseCache
	ttl   time.Duration
	log   *logger.Logger
}

// WithCache wraps a Provider with a response cache. Requests with NoCache
// set, or carrying attachments, always reach the inner provider.
func WithCache(p Provider, c ResponseCache, ttl time.Duration, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &CachingProvider{inner: p, cache: c, ttl: ttl, log: log.With("component", "llm-cache")}
}

func (c *CachingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.NoCache || hasAttachments(req) {
		return c.inner.Generate(ctx, req)
	}

	key := c.key(req)
	if text, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn("cache read failed", "error", err)
	} else if ok {
		return &Response{
			Content:    json.RawMessage(text),
			Model:      c.inner.ModelID(),
			StopReason: "end",
		}, nil
	}

	resp, err := c.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StopReason == "end" {
		if err := c.cache.Set(ctx, key, resp.Text(), c.ttl); err != nil {
			c.log.Warn("cache write failed", "error", err)
		}
	}
	return resp, nil
}

func (c *CachingProvider) ModelID() string {
	return c.inner.ModelID()
}

// key hashes everything that influences the completion.
func (c *CachingProvider) key(req Request) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(struct {
		Model       string
		System      string
		Messages    []Message
		Schema      *Schema
		MaxTokens   int
		Temperature float64
	}{c.inner.ModelID(), req.System, req.Messages, req.Schema, req.MaxTokens, req.Temperature})
	return "llm:" + hex.EncodeToString(h.Sum(nil))
}

func hasAttachments(req Request) bool {
	for _, m := range req.Messages {
		if len(m.Attachments) > 0 {
			return true
		}
	}
	return false
}
