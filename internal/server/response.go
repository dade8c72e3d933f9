package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studentai/internal/drive"
	"github.com/abhisek/studentai/internal/health"
	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/notes"
	"github.com/abhisek/studentai/internal/quiz"
	"github.com/abhisek/studentai/internal/search"
	"github.com/abhisek/studentai/internal/todo"
	"github.com/abhisek/studentai/internal/transcribe"
)

// userError is a domain failure reported as {success:false} with a
// message the front end shows as is. An empty message capitalises the
// error text.
type userError struct {
	err     error
	status  int
	message string
}

var userErrors = []userError{
	{err: notes.ErrNoNotes, message: "No notes found for this topic"},
	{err: notes.ErrInvalidNoteID, message: "Invalid note ID"},
	{err: notes.ErrNothingToSummarize, message: "No notes to summarize"},
	{err: notes.ErrTopicRequired},
	{err: notes.ErrEmptyNote},
	{err: notes.ErrNoTranscriber},
	{err: transcribe.ErrNoSpeech, message: "Could not understand speech"},
	{err: quiz.ErrEmptyQuiz, message: "Failed to generate quiz"},
	{err: quiz.ErrEmptyNotes, message: "Notes are empty"},
	{err: drive.ErrFileNotFound, message: "File not found"},
	{err: drive.ErrInvalidURL, message: "Invalid URL"},
	{err: drive.ErrNoPredefinedLink, message: "No predefined link found"},
	{err: drive.ErrLocalFileMissing, message: "Local file not found"},
	{err: drive.ErrMissingFile, status: http.StatusBadRequest, message: "No file provided"},
	{err: drive.ErrNotLocal},
	{err: drive.ErrInvalidSemester},
	{err: drive.ErrCloudDisabled},
	{err: drive.ErrCannotAnalyzeLink, message: "Cannot analyze external links"},
	{err: drive.ErrCannotAnalyze, message: "Cannot analyze cloud files directly. Download first."},
	{err: drive.ErrNotText},
	{err: health.ErrMissingInput},
	{err: health.ErrReminderNotFound},
	{err: health.ErrInvalidFrequency},
	{err: search.ErrInvalidEngine, message: "Invalid search engine"},
	{err: search.ErrEmptyQuery},
	{err: search.ErrInvalidTimer},
	{err: todo.ErrTaskNotFound, message: "Task not found"},
	{err: todo.ErrInvalidAction, message: "Invalid action"},
	{err: todo.ErrEmptyTask},
}

// classify picks the status code and client message for err. Domain and
// model failures answer 200 with success false; anything else is a 500.
func classify(err error) (int, string) {
	for _, ue := range userErrors {
		if errors.Is(err, ue.err) {
			status := ue.status
			if status == 0 {
				status = http.StatusOK
			}
			msg := ue.message
			if msg == "" {
				msg = capitalize(ue.err.Error())
			}
			return status, msg
		}
	}

	var (
		maxBytes *http.MaxBytesError
		rl       *llm.ErrRateLimit
		unavail  *llm.ErrProviderUnavailable
		invalid  *llm.ErrInvalidResponse
		rejected *llm.ErrRequestRejected
		trunc    *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", maxBytes.Limit)
	case errors.As(err, &rl), errors.As(err, &unavail), errors.As(err, &invalid),
		errors.As(err, &rejected), errors.As(err, &trunc):
		return http.StatusOK, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusOK, "The AI service took too long to respond"
	}
	return http.StatusInternalServerError, err.Error()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ok writes {success:true} merged with payload.
func ok(c *gin.Context, payload gin.H) {
	out := gin.H{"success": true}
	for k, v := range payload {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
	} else {
		s.log.Debug("request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
}

// bindJSON decodes the body into dst, answering 400 on failure.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.failForm(c, err)
		return false
	}
	return true
}

// flexInt accepts 3 and "3". Null and "" decode as zero.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected a number, got %s", b)
	}
	*n = flexInt(v)
	return nil
}

// flexID accepts string and numeric record ids.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = flexID(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected a string or numeric id, got %s", b)
	}
	*id = flexID(num.String())
	return nil
}

// failForm reports a body decoding failure: 413 past the body limit, 400
// otherwise.
func (s *Server) failForm(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		s.fail(c, err)
		return
	}
	badRequest(c, err)
}
