package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studentai/internal/llm"
)

type fakeTranslator struct {
	out string
	err error
}

func (f fakeTranslator) Translate(context.Context, string, string) (string, error) {
	return f.out, f.err
}

func TestWeb_URLs(t *testing.T) {
	s := NewService(nil, nil, nil)
	tests := []struct {
		engine, feature, want string
	}{
		{"", "", "https://www.google.com/search?q=binary+search+trees"},
		{"google", "maps", "https://www.google.com/maps/search/binary%20search%20trees"},
		{"google", "images", "https://www.google.com/search?tbm=isch&q=binary+search+trees"},
		{"google", "videos", "https://www.youtube.com/results?search_query=binary+search+trees"},
		{"google", "scholar", "https://scholar.google.com/scholar?q=binary+search+trees"},
		{"google", "news", "https://www.google.com/search?q=binary+search+trees"},
		{"bing", "search", "https://www.bing.com/search?q=binary+search+trees"},
		{"bing", "maps", "https://www.bing.com/maps?q=binary+search+trees"},
		{"bing", "images", "https://www.bing.com/images/search?q=binary+search+trees"},
		{"Bing", "VIDEOS", "https://www.bing.com/videos/search?q=binary+search+trees"},
		{"bing", "scholar", "https://www.bing.com/search?q=binary+search+trees"},
	}
	for _, tt := range tests {
		res, err := s.Web(context.Background(), WebQuery{Query: "binary search trees", Engine: tt.engine, Feature: tt.feature})
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.URL, "%s/%s", tt.engine, tt.feature)
	}
}

func TestWeb_EscapesQuery(t *testing.T) {
	res, err := NewService(nil, nil, nil).Web(context.Background(), WebQuery{Query: "C++ & Go?"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/search?q=C%2B%2B+%26+Go%3F", res.URL)
	assert.Equal(t, "google", res.Engine)
	assert.Equal(t, "search", res.Feature)
}

func TestWeb_Errors(t *testing.T) {
	s := NewService(nil, nil, nil)
	_, err := s.Web(context.Background(), WebQuery{Query: "x", Engine: "duckduckgo"})
	assert.ErrorIs(t, err, ErrInvalidEngine)
	_, err = s.Web(context.Background(), WebQuery{Query: " "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestWeb_Translation(t *testing.T) {
	s := NewService(nil, fakeTranslator{out: "árboles binarios"}, nil)
	res, err := s.Web(context.Background(), WebQuery{Query: "binary trees", TranslateTo: "es"})
	require.NoError(t, err)
	assert.Equal(t, "árboles binarios", res.Query)
	assert.Equal(t, "https://www.google.com/search?q=%C3%A1rboles+binarios", res.URL)

	s = NewService(nil, fakeTranslator{err: errors.New("quota")}, nil)
	res, err = s.Web(context.Background(), WebQuery{Query: "binary trees", TranslateTo: "es"})
	require.NoError(t, err)
	assert.Equal(t, "binary trees", res.Query)
}

func TestSuggest(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("- try quotes"))
	got, err := NewService(mock, nil, nil).Suggest(context.Background(), "photosynthesis steps")
	require.NoError(t, err)
	assert.Equal(t, &Suggestions{
		Suggestions: "- try quotes",
		GoogleURL:   "https://www.google.com/search?q=photosynthesis+steps",
		ScholarURL:  "https://scholar.google.com/scholar?q=photosynthesis+steps",
		YouTubeURL:  "https://www.youtube.com/results?search_query=photosynthesis+steps",
	}, got)
	assert.Contains(t, mock.LastPrompt(), `For the search query: "photosynthesis steps"`)
}

func TestTaskSuggestions(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Do the lab report first."))
	s := NewService(mock, nil, nil)

	got, err := s.TaskSuggestions(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, noPendingTasks, got)
	assert.Zero(t, mock.CallCount())

	got, err = s.TaskSuggestions(context.Background(), []string{"Lab report", "Read ch. 3"})
	require.NoError(t, err)
	assert.Equal(t, "Do the lab report first.", got)
	assert.Contains(t, mock.LastPrompt(), "current tasks:\n\n- Lab report\n- Read ch. 3\n")
}

func TestStudyMusic(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Lo-fi beats"))
	got, err := NewService(mock, nil, nil).StudyMusic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Lo-fi beats", got)
}

func TestPlanTimer(t *testing.T) {
	start := time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)

	plan, err := PlanTimer(start, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "1 session(s) timer set", plan.Message)
	require.Len(t, plan.Sessions, 1)
	assert.Equal(t, 25, plan.Sessions[0].WorkMinutes)
	assert.Equal(t, start.Add(25*time.Minute), plan.Sessions[0].BreakAt)

	plan, err = PlanTimer(start, 50, 10, 3)
	require.NoError(t, err)
	require.Len(t, plan.Sessions, 3)
	assert.Equal(t, start.Add(2*time.Hour), plan.Sessions[2].StartTime)
	assert.Equal(t, 3, plan.Sessions[2].Session)

	_, err = PlanTimer(start, -1, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidTimer)
	_, err = PlanTimer(start, 25, 5, maxSessions+1)
	assert.ErrorIs(t, err, ErrInvalidTimer)
}
