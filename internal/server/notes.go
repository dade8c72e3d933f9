package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type noteRequest struct {
	Topic    string  `json:"topic"`
	Note     string  `json:"note"`
	NoteID   flexInt `json:"note_id"`
	NewText  string  `json:"new_text"`
	UseAI    bool    `json:"use_ai"`
	Keyword  string  `json:"keyword"`
	Question string  `json:"question"`
}

func (s *Server) createNote(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	saved, err := s.Notes.Create(c.Request.Context(), req.Topic, req.Note, req.UseAI)
	if err != nil {
		s.fail(c, err)
		return
	}
	msg := "Note added successfully!"
	if saved.Enhanced {
		msg += " (AI Enhanced)"
	}
	ok(c, gin.H{"message": msg, "timestamp": saved.Timestamp, "enhanced_note": saved.Text})
}

func (s *Server) viewNotes(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	list, err := s.Notes.View(req.Topic)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"notes": list})
}

func (s *Server) deleteNote(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.Notes.Delete(req.Topic, int(req.NoteID)); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Note deleted successfully!"})
}

func (s *Server) editNote(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	saved, err := s.Notes.Edit(c.Request.Context(), req.Topic, int(req.NoteID), req.NewText, req.UseAI)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Note updated successfully!", "enhanced_note": saved.Text})
}

func (s *Server) searchNotes(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	found, err := s.Notes.Search(req.Topic, req.Keyword)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"notes": found})
}

func (s *Server) summarizeNotes(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	summary, err := s.Notes.Summarize(c.Request.Context(), req.Topic)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"summary": summary})
}

func (s *Server) askNotes(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	answer, err := s.Notes.Ask(c.Request.Context(), req.Topic, req.Question)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"answer": answer})
}

func (s *Server) flashcards(c *gin.Context) {
	var req noteRequest
	if !s.bindJSON(c, &req) {
		return
	}
	cards, err := s.Notes.Flashcards(c.Request.Context(), req.Topic)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"flashcards": cards})
}

// voiceNote takes a multipart form with a topic field and an audio file.
func (s *Server) voiceNote(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No audio provided"})
		return
	}
	if err != nil {
		s.failForm(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, err)
		return
	}

	saved, err := s.Notes.CreateFromAudio(c.Request.Context(), c.PostForm("topic"), audio, fh.Header.Get("Content-Type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{
		"message":       "Voice note added successfully! (AI Enhanced)",
		"timestamp":     saved.Timestamp,
		"enhanced_note": saved.Text,
	})
}
