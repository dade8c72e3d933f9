package server

import (
	"github.com/gin-gonic/gin"

	"github.com/abhisek/studentai/internal/search"
	"github.com/abhisek/studentai/internal/todo"
)

type searchRequest struct {
	Query        string  `json:"query"`
	Engine       string  `json:"engine"`
	Feature      string  `json:"feature"`
	TranslateTo  string  `json:"translate_to"`
	WorkMinutes  flexInt `json:"work_minutes"`
	BreakMinutes flexInt `json:"break_minutes"`
	Sessions     flexInt `json:"sessions"`
}

func (s *Server) searchSuggestions(c *gin.Context) {
	var req searchRequest
	if !s.bindJSON(c, &req) {
		return
	}
	sg, err := s.Search.Suggest(c.Request.Context(), req.Query)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{
		"suggestions": sg.Suggestions,
		"google_url":  sg.GoogleURL,
		"scholar_url": sg.ScholarURL,
		"youtube_url": sg.YouTubeURL,
	})
}

func (s *Server) webSearch(c *gin.Context) {
	var req searchRequest
	if !s.bindJSON(c, &req) {
		return
	}
	res, err := s.Search.Web(c.Request.Context(), search.WebQuery{
		Query:       req.Query,
		Engine:      req.Engine,
		Feature:     req.Feature,
		TranslateTo: req.TranslateTo,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"url": res.URL, "query": res.Query, "engine": res.Engine, "feature": res.Feature})
}

func (s *Server) studyMusic(c *gin.Context) {
	text, err := s.Search.StudyMusic(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"recommendations": text})
}

func (s *Server) studyTimer(c *gin.Context) {
	var req searchRequest
	if !s.bindJSON(c, &req) {
		return
	}
	plan, err := search.PlanTimer(s.now(), int(req.WorkMinutes), int(req.BreakMinutes), int(req.Sessions))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": plan.Message, "sessions": plan.Sessions})
}

// taskSuggestions plans the open to-do items.
func (s *Server) taskSuggestions(c *gin.Context) {
	pending, err := s.Todo.Pending()
	if err != nil {
		s.fail(c, err)
		return
	}
	tasks := make([]string, 0, len(pending))
	for _, t := range pending {
		tasks = append(tasks, t.Task)
	}
	text, err := s.Search.TaskSuggestions(c.Request.Context(), tasks)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"suggestions": text})
}

type todoRequest struct {
	Action string `json:"action"`
	Task   string `json:"task"`
	TaskID flexID `json:"task_id"`
}

func (s *Server) manageTodo(c *gin.Context) {
	var req todoRequest
	if !s.bindJSON(c, &req) {
		return
	}
	action, err := todo.ParseAction(req.Action)
	if err != nil {
		s.fail(c, err)
		return
	}

	id := string(req.TaskID)
	switch action {
	case todo.ActionAdd:
		newID, err := s.Todo.Add(c.Request.Context(), req.Task)
		if err != nil {
			s.fail(c, err)
			return
		}
		ok(c, gin.H{"message": "Task added successfully", "task_id": newID})
	case todo.ActionList:
		tasks, err := s.Todo.List()
		if err != nil {
			s.fail(c, err)
			return
		}
		ok(c, gin.H{"tasks": tasks})
	case todo.ActionComplete:
		if err := s.Todo.Complete(id); err != nil {
			s.fail(c, err)
			return
		}
		ok(c, gin.H{"message": "Task marked as complete"})
	case todo.ActionDelete:
		if err := s.Todo.Delete(id); err != nil {
			s.fail(c, err)
			return
		}
		ok(c, gin.H{"message": "Task deleted successfully"})
	}
}
