package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studentai/internal/drive"
	"github.com/abhisek/studentai/internal/filestore"
	"github.com/abhisek/studentai/internal/health"
	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/notes"
	"github.com/abhisek/studentai/internal/quiz"
	"github.com/abhisek/studentai/internal/search"
	"github.com/abhisek/studentai/internal/store"
	"github.com/abhisek/studentai/internal/todo"
	"github.com/abhisek/studentai/internal/transcribe"
	"github.com/abhisek/studentai/internal/translate"
)

const canned = "canned model reply"

type testEnv struct {
	srv  *Server
	mock *llm.MockProvider
}

func newEnv(t *testing.T, maxBody int64) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	mock := llm.NewMockProvider()
	mock.SetFallback(llm.MockText(canned))
	tr := translate.NewLLMTranslator(mock, nil)

	links, err := drive.LoadLinks("")
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(dir, "studentai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ids := filestore.SequenceAllocator{Seqs: st.Sequences()}

	notesSvc := notes.NewService(filepath.Join(dir, "notes"), mock, transcribe.NewLLMTranscriber(mock, nil), nil)
	srv := New(Deps{
		Notes: notesSvc,
		Drive: drive.NewService(drive.Paths{
			Catalog: filepath.Join(dir, "drive_database.json"),
			Files:   filepath.Join(dir, "drive_files"),
		}, links, nil, mock, ids, nil),
		Health: health.NewService(mock, tr, health.Paths{
			History:   filepath.Join(dir, "health_history.json"),
			Reminders: filepath.Join(dir, "health_reminders.json"),
		}, ids, nil),
		Generator:      quiz.NewGenerator(mock, notesSvc, nil, nil),
		Evaluator:      quiz.NewEvaluator(mock, quiz.Grader{}, nil),
		Reports:        quiz.NewReportLog(filepath.Join(dir, "quiz_reports.csv")),
		Search:         search.NewService(mock, tr, nil),
		Todo:           todo.NewService(filepath.Join(dir, "todo_list.json"), ids, nil),
		MaxUploadBytes: maxBody,
	})
	srv.now = func() time.Time { return time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC) }
	return &testEnv{srv: srv, mock: mock}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := e.do(req)
	return rec.Code, decode(t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestNotFoundAndHealthz(t *testing.T) {
	e := newEnv(t, 0)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	e := newEnv(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "abc-123")
	assert.Equal(t, "abc-123", e.do(req).Header().Get(headerRequestID))

	generated := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Header().Get(headerRequestID)
	assert.Len(t, generated, 36)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	e := newEnv(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/notes/view", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := e.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBadJSON(t *testing.T) {
	e := newEnv(t, 0)
	code, body := e.post(t, "/api/notes/view", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "Invalid request")
}

func TestBodyLimit(t *testing.T) {
	e := newEnv(t, 64)
	code, body := e.post(t, "/api/notes/create", map[string]any{"topic": "Bio", "note": strings.Repeat("x", 500)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, false, body["success"])
}

func TestNotesRoutes(t *testing.T) {
	e := newEnv(t, 0)

	code, body := e.post(t, "/api/notes/create", map[string]any{"topic": "Cell Biology", "note": "Mitochondria make ATP"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Note added successfully!", body["message"])
	assert.Equal(t, "Mitochondria make ATP", body["enhanced_note"])

	e.mock.AddResponse(llm.MockText("Ribosomes build proteins."))
	_, body = e.post(t, "/api/notes/create", map[string]any{"topic": "Cell Biology", "note": "ribosomes make protien", "use_ai": true})
	assert.Equal(t, "Note added successfully! (AI Enhanced)", body["message"])
	assert.Equal(t, "Ribosomes build proteins.", body["enhanced_note"])

	_, body = e.post(t, "/api/notes/view", map[string]any{"topic": "Cell Biology"})
	list := body["notes"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, float64(1), list[0].(map[string]any)["id"])

	_, body = e.post(t, "/api/notes/edit", map[string]any{"topic": "Cell Biology", "note_id": "2", "new_text": "Ribosomes translate mRNA"})
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Ribosomes translate mRNA", body["enhanced_note"])

	_, body = e.post(t, "/api/notes/search", map[string]any{"topic": "Cell Biology", "keyword": "MRNA"})
	assert.Len(t, body["notes"], 1)

	code, body = e.post(t, "/api/notes/delete", map[string]any{"topic": "Cell Biology", "note_id": 5})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid note ID", body["message"])

	_, body = e.post(t, "/api/notes/delete", map[string]any{"topic": "Cell Biology", "note_id": 1})
	assert.Equal(t, "Note deleted successfully!", body["message"])

	_, body = e.post(t, "/api/notes/summarize", map[string]any{"topic": "Cell Biology"})
	assert.Equal(t, canned, body["summary"])

	_, body = e.post(t, "/api/notes/ask-ai", map[string]any{"topic": "Physics", "question": "What is work?"})
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No notes found for this topic", body["message"])

	_, body = e.post(t, "/api/notes/create", map[string]any{"topic": "", "note": "x"})
	assert.Equal(t, "Topic is required", body["message"])
}

func TestVoiceNote(t *testing.T) {
	e := newEnv(t, 0)
	e.mock.AddResponse(llm.MockText("krebs cycle happens in the matrix"))
	e.mock.AddResponse(llm.MockText("The Krebs cycle happens in the mitochondrial matrix."))

	req := multipartRequest(t, "/api/notes/voice", map[string]string{"topic": "Bio"}, "audio", "rec.wav", "audio/wav", []byte("RIFF"))
	rec := e.do(req)
	body := decode(t, rec)
	require.Equal(t, true, body["success"], body)
	assert.Equal(t, "The Krebs cycle happens in the mitochondrial matrix.", body["enhanced_note"])

	rec = e.do(multipartRequest(t, "/api/notes/voice", map[string]string{"topic": "Bio"}, "", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuizRoutes(t *testing.T) {
	e := newEnv(t, 0)

	e.mock.AddResponse(llm.MockText("TYPE: TF\nQ: Sky is blue?\nA: True\n"))
	_, body := e.post(t, "/api/quiz/generate-from-topic", map[string]any{"topic": "Nature", "num_questions": "1", "quiz_type": "TF"})
	require.Equal(t, true, body["success"], body)
	assert.Equal(t, "tf", body["type"])
	assert.Equal(t, "medium", body["difficulty"])
	questions := body["questions"].([]any)
	require.Len(t, questions, 1)

	_, body = e.post(t, "/api/quiz/generate-from-notes", map[string]any{"topic": "Nature"})
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No notes found for this topic", body["message"])

	_, body = e.post(t, "/api/quiz/evaluate", map[string]any{
		"topic":     "Nature",
		"questions": questions,
		"answers":   []string{"t"},
	})
	require.Equal(t, true, body["success"], body)
	assert.Equal(t, float64(1), body["score"])
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(100), body["percentage"])
	assert.Equal(t, canned, body["overall_feedback"])

	_, body = e.post(t, "/api/quiz/history", map[string]any{})
	history := body["history"].([]any)
	require.Len(t, history, 1)
	row := history[0].(map[string]any)
	assert.Equal(t, "Nature", row["topic"])
	assert.Equal(t, "100.0%", row["percentage"])

	_, body = e.post(t, "/api/quiz/evaluate-answer", map[string]any{
		"question":     map[string]any{"type": "MCQ", "question": "2+2?", "answer": "4"},
		"answer":       "5",
		"get_feedback": false,
	})
	assert.Equal(t, false, body["is_correct"])
	assert.Equal(t, "The correct answer is: 4", body["feedback"])

	_, body = e.post(t, "/api/quiz/evaluate-answer", map[string]any{
		"question":     map[string]any{"type": "tf", "question": "The sun is a star.", "answer": "True"},
		"answer":       "t",
		"get_feedback": false,
	})
	assert.Equal(t, true, body["is_correct"])

	_, body = e.post(t, "/api/quiz/recommendations", map[string]any{
		"results": []map[string]any{{"question": "2+2?", "is_correct": true}},
	})
	assert.Contains(t, body["recommendations"], "mastered")

	_, body = e.post(t, "/api/quiz/practice", map[string]any{"topic": "Math", "weak_areas": []string{"fractions"}})
	assert.Equal(t, canned, body["practice"])
}

func TestDriveRoutes(t *testing.T) {
	e := newEnv(t, 0)

	req := multipartRequest(t, "/api/drive/upload",
		map[string]string{"semester": "3", "degree": "cs", "subject": "dsa", "description": "heaps"},
		"file", "heaps.txt", "text/plain", []byte("binary heaps"))
	body := decode(t, e.do(req))
	require.Equal(t, true, body["success"], body)
	assert.Equal(t, "File uploaded successfully!", body["message"])
	id := body["file_id"].(string)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/drive/download/"+id, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "binary heaps", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "heaps.txt")

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/drive/download/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(multipartRequest(t, "/api/drive/upload", map[string]string{"semester": "3"}, "", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", decode(t, rec)["message"])

	_, body = e.post(t, "/api/drive/add-link", map[string]any{"link": "https://example.com/x", "semester": 3, "degree": "cs", "subject": "dsa"})
	assert.Equal(t, "Link added successfully!", body["message"])

	_, body = e.post(t, "/api/drive/add-link", map[string]any{"link": "nope", "semester": 3})
	assert.Equal(t, "Invalid URL", body["message"])

	_, body = e.post(t, "/api/drive/list", map[string]any{"semester": "3", "degree": "CS"})
	assert.Len(t, body["files"], 2)

	_, body = e.post(t, "/api/drive/search", map[string]any{"query": "heaps"})
	assert.Equal(t, float64(1), body["count"])

	_, body = e.post(t, "/api/drive/open", map[string]any{"file_id": 2})
	assert.Equal(t, true, body["is_external"])
	assert.Equal(t, "https://example.com/x", body["url"])

	_, body = e.post(t, "/api/drive/predefined", map[string]any{"semester": 4, "subject": "OS"})
	assert.Equal(t, "https://drive.google.com/drive/folders/1XU_aEyVGhvWx5VFB8erMym_BICPbiy31", body["link"])

	_, body = e.post(t, "/api/drive/analyze", map[string]any{"file_id": id})
	assert.Equal(t, canned, body["analysis"])

	_, body = e.post(t, "/api/drive/study-plan", map[string]any{"semester": 3, "degree": "CS", "subjects": []string{"DSA"}})
	assert.Equal(t, canned, body["study_plan"])

	_, body = e.post(t, "/api/drive/delete", map[string]any{"file_id": id})
	assert.Equal(t, "File deleted successfully!", body["message"])
	_, body = e.post(t, "/api/drive/info", map[string]any{"file_id": id})
	assert.Equal(t, "File not found", body["message"])
}

func TestHealthRoutes(t *testing.T) {
	e := newEnv(t, 0)

	_, body := e.post(t, "/api/health/analyze", map[string]any{"symptoms": "headache", "age": "21"})
	assert.Equal(t, canned, body["analysis"])
	assert.Contains(t, body["webmd_url"], "query=headache")

	_, body = e.post(t, "/api/health/history", nil)
	assert.Len(t, body["history"], 1)

	_, body = e.post(t, "/api/health/wellness", map[string]any{"category": "astrology"})
	assert.Equal(t, "general", body["category"])

	_, body = e.post(t, "/api/health/mental", map[string]any{"concern": "exam stress"})
	assert.Equal(t, "988", body["resources"].(map[string]any)["suicide_hotline"])

	_, body = e.post(t, "/api/health/reminders/create", map[string]any{"reminder": "Drink water", "frequency": "hourly"})
	assert.Equal(t, "Invalid reminder frequency", body["message"])

	_, body = e.post(t, "/api/health/reminders/create", map[string]any{"reminder": "Drink water"})
	assert.Equal(t, "Reminder created successfully!", body["message"])
	rid := body["reminder_id"]

	_, body = e.post(t, "/api/health/reminders/toggle", map[string]any{"reminder_id": rid, "active": false})
	assert.Equal(t, "Reminder paused", body["message"])

	_, body = e.post(t, "/api/health/reminders/list", nil)
	list := body["reminders"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0].(map[string]any)["active"])

	_, body = e.post(t, "/api/health/reminders/delete", map[string]any{"reminder_id": rid})
	assert.Equal(t, true, body["success"])
	_, body = e.post(t, "/api/health/reminders/delete", map[string]any{"reminder_id": rid})
	assert.Equal(t, "Reminder not found", body["message"])
}

func TestSearchRoutes(t *testing.T) {
	e := newEnv(t, 0)

	_, body := e.post(t, "/api/search/web", map[string]any{"query": "black holes", "engine": "bing", "feature": "images"})
	assert.Equal(t, "https://www.bing.com/images/search?q=black+holes", body["url"])

	_, body = e.post(t, "/api/search/web", map[string]any{"query": "x", "engine": "altavista"})
	assert.Equal(t, "Invalid search engine", body["message"])

	_, body = e.post(t, "/api/search/suggestions", map[string]any{"query": "entropy"})
	assert.Equal(t, canned, body["suggestions"])

	_, body = e.post(t, "/api/search/timer", map[string]any{"sessions": 2})
	assert.Equal(t, "2 session(s) timer set", body["message"])
	assert.Len(t, body["sessions"], 2)

	_, body = e.post(t, "/api/search/timer", map[string]any{"sessions": 100})
	assert.Equal(t, false, body["success"])

	calls := e.mock.CallCount()
	_, body = e.post(t, "/api/search/task-suggestions", nil)
	assert.Contains(t, body["suggestions"], "no pending tasks")
	assert.Equal(t, calls, e.mock.CallCount())
}

func TestTodoRoutes(t *testing.T) {
	e := newEnv(t, 0)

	_, body := e.post(t, "/api/todo/manage", map[string]any{"action": "add", "task": "Revise chapter 2"})
	assert.Equal(t, "Task added successfully", body["message"])
	assert.Equal(t, "1", body["task_id"])

	_, body = e.post(t, "/api/todo/manage", map[string]any{"action": "complete", "task_id": 1})
	assert.Equal(t, "Task marked as complete", body["message"])

	_, body = e.post(t, "/api/todo/manage", map[string]any{"action": "list"})
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, true, tasks[0].(map[string]any)["completed"])

	_, body = e.post(t, "/api/todo/manage", map[string]any{"action": "delete", "task_id": "1"})
	assert.Equal(t, "Task deleted successfully", body["message"])

	_, body = e.post(t, "/api/todo/manage", map[string]any{"action": "delete", "task_id": "1"})
	assert.Equal(t, "Task not found", body["message"])

	_, body = e.post(t, "/api/todo/manage", map[string]any{"action": "archive"})
	assert.Equal(t, "Invalid action", body["message"])
}

func TestTodoIDNotReusedAfterDeletingNewest(t *testing.T) {
	e := newEnv(t, 0)
	add := func(task string) string {
		_, body := e.post(t, "/api/todo/manage", map[string]any{"action": "add", "task": task})
		require.Equal(t, true, body["success"], body)
		return body["task_id"].(string)
	}

	assert.Equal(t, "1", add("first"))
	assert.Equal(t, "2", add("second"))

	_, body := e.post(t, "/api/todo/manage", map[string]any{"action": "delete", "task_id": "2"})
	require.Equal(t, "Task deleted successfully", body["message"])

	third := add("third")
	assert.NotEqual(t, "2", third)
	assert.Equal(t, "3", third)

	_, body = e.post(t, "/api/todo/manage", map[string]any{"action": "list"})
	require.Len(t, body["tasks"], 2)
}

func TestDriveIDNotReusedAfterDeletingNewest(t *testing.T) {
	e := newEnv(t, 0)
	link := func() string {
		_, body := e.post(t, "/api/drive/add-link", map[string]any{
			"link": "https://example.com/notes", "semester": 1, "degree": "btech", "subject": "physics",
		})
		require.Equal(t, true, body["success"], body)
		return body["file_id"].(string)
	}

	first, second := link(), link()
	require.NotEqual(t, first, second)

	_, body := e.post(t, "/api/drive/delete", map[string]any{"file_id": second})
	require.Equal(t, "File deleted successfully!", body["message"])

	assert.NotEqual(t, second, link())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"wrapped sentinel", fmt.Errorf("view: %w", notes.ErrNoNotes), http.StatusOK, "No notes found for this topic"},
		{"capitalised sentinel", todo.ErrEmptyTask, http.StatusOK, "Task text is required"},
		{"bad request sentinel", drive.ErrMissingFile, http.StatusBadRequest, "No file provided"},
		{"model failure", fmt.Errorf("generate quiz: %w", &llm.ErrProviderUnavailable{}), http.StatusOK, "generate quiz: LLM provider unavailable"},
		{"body limit", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "Request body exceeds 10 bytes"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestFlexDecoding(t *testing.T) {
	var v struct {
		N  flexInt `json:"n"`
		ID flexID  `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"n":"7","id":12}`), &v))
	assert.Equal(t, flexInt(7), v.N)
	assert.Equal(t, flexID("12"), v.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"n":3,"id":" 4 "}`), &v))
	assert.Equal(t, flexInt(3), v.N)
	assert.Equal(t, flexID("4"), v.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"n":null}`), &v))
	assert.Equal(t, flexInt(0), v.N)

	assert.Error(t, json.Unmarshal([]byte(`{"n":"seven"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &v))
}
