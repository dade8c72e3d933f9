package server

import (
	"github.com/gin-gonic/gin"

	"github.com/abhisek/studentai/internal/health"
)

type healthRequest struct {
	Symptoms      string  `json:"symptoms"`
	Age           flexInt `json:"age"`
	Gender        string  `json:"gender"`
	Query         string  `json:"query"`
	TranslateTo   string  `json:"translate_to"`
	Category      string  `json:"category"`
	EmergencyType string  `json:"emergency_type"`
	Medication    string  `json:"medication"`
	Concern       string  `json:"concern"`
}

type reminderRequest struct {
	Reminder   string `json:"reminder"`
	Frequency  string `json:"frequency"`
	ReminderID flexID `json:"reminder_id"`
	Active     bool   `json:"active"`
}

func (s *Server) analyzeSymptoms(c *gin.Context) {
	var req healthRequest
	if !s.bindJSON(c, &req) {
		return
	}
	a, err := s.Health.AnalyzeSymptoms(c.Request.Context(), health.SymptomInput{
		Symptoms: req.Symptoms,
		Age:      int(req.Age),
		Gender:   req.Gender,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"analysis": a.Analysis, "webmd_url": a.WebMDURL})
}

func (s *Server) searchHealthInfo(c *gin.Context) {
	var req healthRequest
	if !s.bindJSON(c, &req) {
		return
	}
	info, err := s.Health.SearchInfo(c.Request.Context(), req.Query, req.TranslateTo)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"info": info.Info, "query": info.Query, "webmd_url": info.WebMDURL, "mayo_url": info.MayoURL})
}

func (s *Server) wellnessTips(c *gin.Context) {
	var req healthRequest
	if !s.bindJSON(c, &req) {
		return
	}
	tips, category, err := s.Health.WellnessTips(c.Request.Context(), req.Category)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"tips": tips, "category": category})
}

func (s *Server) firstAid(c *gin.Context) {
	var req healthRequest
	if !s.bindJSON(c, &req) {
		return
	}
	guide, err := s.Health.FirstAid(c.Request.Context(), req.EmergencyType)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"guide": guide, "emergency_type": req.EmergencyType})
}

func (s *Server) medicationInfo(c *gin.Context) {
	var req healthRequest
	if !s.bindJSON(c, &req) {
		return
	}
	info, err := s.Health.MedicationInfo(c.Request.Context(), req.Medication)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"info": info.Info, "medication": info.Medication, "drugs_url": info.DrugsURL})
}

func (s *Server) mentalHealth(c *gin.Context) {
	var req healthRequest
	if !s.bindJSON(c, &req) {
		return
	}
	sup, err := s.Health.MentalHealthSupport(c.Request.Context(), req.Concern)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"support": sup.Support, "concern": sup.Concern, "resources": sup.Resources})
}

func (s *Server) healthHistory(c *gin.Context) {
	history, err := s.Health.History()
	if err != nil {
		s.fail(c, err)
		return
	}
	if history == nil {
		history = []health.HistoryEntry{}
	}
	ok(c, gin.H{"history": history})
}

func (s *Server) createReminder(c *gin.Context) {
	var req reminderRequest
	if !s.bindJSON(c, &req) {
		return
	}
	id, err := s.Health.CreateReminder(c.Request.Context(), req.Reminder, req.Frequency)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Reminder created successfully!", "reminder_id": id})
}

func (s *Server) listReminders(c *gin.Context) {
	list, err := s.Health.Reminders()
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"reminders": list})
}

// toggleReminder sets the active flag. A body without "active" pauses the
// reminder.
func (s *Server) toggleReminder(c *gin.Context) {
	var req reminderRequest
	if !s.bindJSON(c, &req) {
		return
	}
	active := req.Active
	if err := s.Health.SetReminderActive(string(req.ReminderID), active); err != nil {
		s.fail(c, err)
		return
	}
	msg := "Reminder paused"
	if active {
		msg = "Reminder resumed"
	}
	ok(c, gin.H{"message": msg})
}

func (s *Server) deleteReminder(c *gin.Context) {
	var req reminderRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.Health.DeleteReminder(string(req.ReminderID)); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Reminder deleted successfully!"})
}
