package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studentai/internal/quiz"
)

type generateRequest struct {
	Topic        string  `json:"topic"`
	NumQuestions flexInt `json:"num_questions"`
	Difficulty   string  `json:"difficulty"`
	QuizType     string  `json:"quiz_type"`
}

func (r generateRequest) input() quiz.GenerateInput {
	return quiz.GenerateInput{
		Topic:      r.Topic,
		Count:      int(r.NumQuestions),
		Difficulty: r.Difficulty,
		Kind:       quiz.Kind(strings.ToLower(strings.TrimSpace(r.QuizType))),
	}
}

func quizPayload(q *quiz.Quiz) gin.H {
	return gin.H{
		"questions":  q.Questions,
		"topic":      q.Topic,
		"difficulty": q.Difficulty,
		"type":       q.Kind,
	}
}

func (s *Server) quizFromNotes(c *gin.Context) {
	var req generateRequest
	if !s.bindJSON(c, &req) {
		return
	}
	q, err := s.Generator.FromNotes(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, quizPayload(q))
}

func (s *Server) quizFromTopic(c *gin.Context) {
	var req generateRequest
	if !s.bindJSON(c, &req) {
		return
	}
	q, err := s.Generator.FromTopic(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, quizPayload(q))
}

type evaluateRequest struct {
	Topic     string          `json:"topic"`
	Questions []quiz.Question `json:"questions"`
	Answers   []string        `json:"answers"`
}

// evaluateQuiz grades a submitted quiz and appends it to the report log.
// A failed log write is logged and does not fail the request.
func (s *Server) evaluateQuiz(c *gin.Context) {
	var req evaluateRequest
	if !s.bindJSON(c, &req) {
		return
	}
	res := s.Evaluator.EvaluateQuiz(c.Request.Context(), req.Questions, req.Answers)

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = "Unknown"
	}
	if s.Reports != nil {
		if err := s.Reports.Append(topic, res); err != nil {
			s.log.Warn("could not save quiz report", "topic", topic, "error", err)
		}
	}

	ok(c, gin.H{
		"score":            res.Score,
		"total":            res.Total,
		"percentage":       res.Percentage,
		"results":          res.Results,
		"overall_feedback": res.OverallFeedback,
	})
}

type answerRequest struct {
	Question    quiz.Question `json:"question"`
	Answer      string        `json:"answer"`
	GetFeedback *bool         `json:"get_feedback"`
}

// evaluateAnswer grades one answer. Model feedback is on unless
// get_feedback is false.
func (s *Server) evaluateAnswer(c *gin.Context) {
	var req answerRequest
	if !s.bindJSON(c, &req) {
		return
	}
	withFeedback := req.GetFeedback == nil || *req.GetFeedback
	ga := s.Evaluator.EvaluateAnswer(c.Request.Context(), req.Question, req.Answer, withFeedback)
	ok(c, gin.H{
		"is_correct":     ga.Correct,
		"feedback":       ga.Feedback,
		"correct_answer": ga.Canonical,
	})
}

func (s *Server) quizHistory(c *gin.Context) {
	history := []map[string]string{}
	if s.Reports != nil {
		var err error
		if history, err = s.Reports.History(); err != nil {
			s.fail(c, err)
			return
		}
	}
	ok(c, gin.H{"history": history})
}

type coachRequest struct {
	Topic     string              `json:"topic"`
	WeakAreas []string            `json:"weak_areas"`
	Results   []quiz.GradedAnswer `json:"results"`
}

func (s *Server) practice(c *gin.Context) {
	var req coachRequest
	if !s.bindJSON(c, &req) {
		return
	}
	text, err := s.Evaluator.Practice(c.Request.Context(), req.Topic, req.WeakAreas)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"practice": text})
}

func (s *Server) recommendations(c *gin.Context) {
	var req coachRequest
	if !s.bindJSON(c, &req) {
		return
	}
	text, err := s.Evaluator.Recommendations(c.Request.Context(), req.Results)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"recommendations": text})
}
