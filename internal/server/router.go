package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(s.log))
	r.Use(CORS())
	r.Use(MaxBody(s.MaxUploadBytes))
	if s.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = min(s.MaxUploadBytes, 32<<20)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	if s.Notes != nil {
		n := api.Group("/notes")
		n.POST("/create", s.createNote)
		n.POST("/view", s.viewNotes)
		n.POST("/delete", s.deleteNote)
		n.POST("/edit", s.editNote)
		n.POST("/search", s.searchNotes)
		n.POST("/summarize", s.summarizeNotes)
		n.POST("/ask-ai", s.askNotes)
		n.POST("/flashcards", s.flashcards)
		n.POST("/voice", s.voiceNote)
	}

	if s.Drive != nil {
		d := api.Group("/drive")
		d.POST("/upload", s.uploadFile)
		d.POST("/add-link", s.addLink)
		d.POST("/list", s.listFiles)
		d.POST("/delete", s.deleteFile)
		d.POST("/predefined", s.predefinedLink)
		d.POST("/info", s.fileInfo)
		d.POST("/open", s.openFile)
		d.POST("/search", s.searchFiles)
		d.POST("/study-plan", s.studyPlan)
		d.POST("/analyze", s.analyzeFile)
		d.GET("/download/:id", s.downloadFile)
	}

	if s.Health != nil {
		h := api.Group("/health")
		h.POST("/analyze", s.analyzeSymptoms)
		h.POST("/search", s.searchHealthInfo)
		h.POST("/wellness", s.wellnessTips)
		h.POST("/first-aid", s.firstAid)
		h.POST("/medication", s.medicationInfo)
		h.POST("/mental", s.mentalHealth)
		h.POST("/history", s.healthHistory)
		h.POST("/reminders/create", s.createReminder)
		h.POST("/reminders/list", s.listReminders)
		h.POST("/reminders/toggle", s.toggleReminder)
		h.POST("/reminders/delete", s.deleteReminder)
	}

	if s.Generator != nil && s.Evaluator != nil {
		q := api.Group("/quiz")
		q.POST("/generate-from-notes", s.quizFromNotes)
		q.POST("/generate-from-topic", s.quizFromTopic)
		q.POST("/evaluate", s.evaluateQuiz)
		q.POST("/evaluate-answer", s.evaluateAnswer)
		q.POST("/history", s.quizHistory)
		q.POST("/practice", s.practice)
		q.POST("/recommendations", s.recommendations)
	}

	if s.Search != nil {
		sr := api.Group("/search")
		sr.POST("/suggestions", s.searchSuggestions)
		sr.POST("/web", s.webSearch)
		sr.POST("/music", s.studyMusic)
		sr.POST("/timer", s.studyTimer)
		if s.Todo != nil {
			sr.POST("/task-suggestions", s.taskSuggestions)
		}
	}

	if s.Todo != nil {
		api.POST("/todo/manage", s.manageTodo)
	}

	return r
}
