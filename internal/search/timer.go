package search

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultWorkMinutes  = 25
	defaultBreakMinutes = 5
	maxSessions         = 12
)

var ErrInvalidTimer = errors.New("invalid study timer settings")

// TimerSession is one planned pomodoro.
type TimerSession struct {
	Session      int       `json:"session"`
	WorkMinutes  int       `json:"work_minutes"`
	BreakMinutes int       `json:"break_minutes"`
	StartTime    time.Time `json:"start_time"`
	BreakAt      time.Time `json:"break_at"`
}

// TimerPlan is a back-to-back schedule of pomodoros.
type TimerPlan struct {
	Message  string         `json:"message"`
	Sessions []TimerSession `json:"sessions"`
}

// PlanTimer schedules sessions starting at start. Zero values take the
// classic 25/5 pomodoro and a single session.
func PlanTimer(start time.Time, work, rest, sessions int) (*TimerPlan, error) {
	if work == 0 {
		work = defaultWorkMinutes
	}
	if rest == 0 {
		rest = defaultBreakMinutes
	}
	if sessions == 0 {
		sessions = 1
	}
	if work < 0 || rest < 0 || sessions < 0 || sessions > maxSessions {
		return nil, ErrInvalidTimer
	}

	plan := &TimerPlan{Message: fmt.Sprintf("%d session(s) timer set", sessions)}
	at := start
	for i := range sessions {
		breakAt := at.Add(time.Duration(work) * time.Minute)
		plan.Sessions = append(plan.Sessions, TimerSession{
			Session:      i + 1,
			WorkMinutes:  work,
			BreakMinutes: rest,
			StartTime:    at,
			BreakAt:      breakAt,
		})
		at = breakAt.Add(time.Duration(rest) * time.Minute)
	}
	return plan, nil
}
