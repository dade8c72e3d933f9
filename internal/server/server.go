// Package server exposes the student assistant over HTTP. Every API route
// takes a JSON (or multipart) POST body and answers
// {"success": true, ...} or {"success": false, "message": "..."}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studentai/internal/drive"
	"github.com/abhisek/studentai/internal/health"
	"github.com/abhisek/studentai/internal/logger"
	"github.com/abhisek/studentai/internal/notes"
	"github.com/abhisek/studentai/internal/quiz"
	"github.com/abhisek/studentai/internal/search"
	"github.com/abhisek/studentai/internal/todo"
)

// Deps are the services behind the routes. A nil service leaves its
// routes unregistered.
type Deps struct {
	Notes     *notes.Service
	Drive     *drive.Service
	Health    *health.Service
	Generator *quiz.Generator
	Evaluator *quiz.Evaluator
	Reports   *quiz.ReportLog
	Search    *search.Service
	Todo      *todo.Service

	Log            *logger.Logger
	MaxUploadBytes int64
}

// Server is the HTTP front of the services.
type Server struct {
	Deps
	engine *gin.Engine
	log    *logger.Logger
	now    func() time.Time
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	s := &Server{Deps: d, log: d.Log.With("component", "http"), now: time.Now}
	s.engine = s.routes()
	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
