// Package search builds web search links and asks the model for search
// and study-planning help.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
	"github.com/abhisek/studentai/internal/translate"
)

var (
	ErrInvalidEngine = errors.New("invalid search engine")
	ErrEmptyQuery    = errors.New("query is required")
)

const (
	EngineGoogle = "google"
	EngineBing   = "bing"

	FeatureSearch = "search"
)

type urlBuilder func(q string) string

func queryURL(prefix string) urlBuilder {
	return func(q string) string { return prefix + url.QueryEscape(q) }
}

func pathURL(prefix string) urlBuilder {
	return func(q string) string { return prefix + url.PathEscape(q) }
}

var engines = map[string]map[string]urlBuilder{
	EngineGoogle: {
		"search":  queryURL("https://www.google.com/search?q="),
		"maps":    pathURL("https://www.google.com/maps/search/"),
		"images":  queryURL("https://www.google.com/search?tbm=isch&q="),
		"videos":  queryURL("https://www.youtube.com/results?search_query="),
		"scholar": queryURL("https://scholar.google.com/scholar?q="),
	},
	EngineBing: {
		"search": queryURL("https://www.bing.com/search?q="),
		"maps":   queryURL("https://www.bing.com/maps?q="),
		"images": queryURL("https://www.bing.com/images/search?q="),
		"videos": queryURL("https://www.bing.com/videos/search?q="),
	},
}

// Service answers search requests.
type Service struct {
	provider   llm.Provider
	translator translate.Translator
	log        *logger.Logger
}

// NewService creates a Service. A nil translator disables translation.
func NewService(provider llm.Provider, translator translate.Translator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{provider: provider, translator: translator, log: log.With("service", "search")}
}

// Suggestions is the model's advice for a query plus ready-made links.
type Suggestions struct {
	Suggestions string `json:"suggestions"`
	GoogleURL   string `json:"google_url"`
	ScholarURL  string `json:"scholar_url"`
	YouTubeURL  string `json:"youtube_url"`
}

// Suggest asks for refined queries and related topics.
func (s *Service) Suggest(ctx context.Context, query string) (*Suggestions, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	text, err := llm.Complete(ctx, s.provider, "search.suggestions", fmt.Sprintf(`For the search query: "%s"

Provide:
1. 3 refined search suggestions to get better results
2. Key topics related to this query
3. Recommended search filters or keywords
4. Alternative search terms

Format as bullet points, be concise.`, query))
	if err != nil {
		return nil, err
	}
	google := engines[EngineGoogle]
	return &Suggestions{
		Suggestions: text,
		GoogleURL:   google["search"](query),
		ScholarURL:  google["scholar"](query),
		YouTubeURL:  google["videos"](query),
	}, nil
}

// WebQuery selects an engine and feature. Empty fields default to google
// and search; an unknown feature falls back to plain search.
type WebQuery struct {
	Query       string
	Engine      string
	Feature     string
	TranslateTo string
}

// WebResult is the link to open.
type WebResult struct {
	URL     string `json:"url"`
	Query   string `json:"query"`
	Engine  string `json:"engine"`
	Feature string `json:"feature"`
}

// Web builds the search URL, translating the query first when asked. A
// failed translation searches with the original query.
func (s *Service) Web(ctx context.Context, in WebQuery) (*WebResult, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if in.Engine == "" {
		in.Engine = EngineGoogle
	}
	if in.Feature == "" {
		in.Feature = FeatureSearch
	}
	features, ok := engines[strings.ToLower(in.Engine)]
	if !ok {
		return nil, ErrInvalidEngine
	}

	query := s.translateQuery(ctx, in.Query, in.TranslateTo)
	build, ok := features[strings.ToLower(in.Feature)]
	if !ok {
		build = features[FeatureSearch]
	}

	s.log.Info("web search", "engine", in.Engine, "feature", in.Feature)
	return &WebResult{URL: build(query), Query: query, Engine: in.Engine, Feature: in.Feature}, nil
}

func (s *Service) translateQuery(ctx context.Context, query, target string) string {
	if s.translator == nil || strings.TrimSpace(target) == "" {
		return query
	}
	out, err := s.translator.Translate(ctx, query, target)
	if err != nil {
		s.log.Warn("translation failed, searching untranslated", "target", target, "error", err)
		return query
	}
	return out
}

const noPendingTasks = "You have no pending tasks. Add a few tasks to get a suggested plan for today."

// TaskSuggestions asks how to prioritise and schedule the open tasks.
func (s *Service) TaskSuggestions(ctx context.Context, tasks []string) (string, error) {
	if len(tasks) == 0 {
		return noPendingTasks, nil
	}
	var b strings.Builder
	b.WriteString("Here are a student's current tasks:\n\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString(`
Provide:
1. Prioritization recommendation (which tasks to do first)
2. Time estimates for each task
3. Suggested schedule for today
4. Tips for productivity

Be practical and encouraging.`)
	return llm.Complete(ctx, s.provider, "search.task-suggestions", b.String())
}

// StudyMusic recommends focus music.
func (s *Service) StudyMusic(ctx context.Context) (string, error) {
	return llm.Complete(ctx, s.provider, "search.music", `Recommend 10 types of study music or playlists that help with concentration.

For each, provide:
- Music type/genre
- When it's best used
- YouTube search term

Focus on scientifically-backed options for focus and productivity.`)
}
