package health

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/studentai/internal/filestore"
)

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrInvalidFrequency = errors.New("invalid reminder frequency")
)

// Frequencies lists the accepted reminder frequencies.
var Frequencies = []string{"daily", "weekly", "monthly"}

// Reminder is a stored health reminder.
type Reminder struct {
	Text      string `json:"text"`
	Frequency string `json:"frequency"`
	CreatedAt string `json:"created_at"`
	Active    bool   `json:"active"`
}

// ReminderView is a Reminder with its id.
type ReminderView struct {
	ID string `json:"id"`
	Reminder
}

// CreateReminder stores an active reminder. Frequency defaults to daily.
func (s *Service) CreateReminder(ctx context.Context, text, frequency string) (string, error) {
	if err := required(text); err != nil {
		return "", err
	}
	frequency = strings.ToLower(strings.TrimSpace(frequency))
	if frequency == "" {
		frequency = "daily"
	}
	if !slices.Contains(Frequencies, frequency) {
		return "", ErrInvalidFrequency
	}

	id, err := s.reminders.Insert(ctx, Reminder{
		Text:      strings.TrimSpace(text),
		Frequency: frequency,
		CreatedAt: s.now().Format(time.RFC3339),
		Active:    true,
	})
	if err != nil {
		return "", fmt.Errorf("create reminder: %w", err)
	}
	s.log.Info("health reminder created", "id", id, "frequency", frequency)
	return id, nil
}

// Reminders lists every reminder in id order.
func (s *Service) Reminders() ([]ReminderView, error) {
	entries, err := s.reminders.List()
	if err != nil {
		return nil, err
	}
	out := make([]ReminderView, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReminderView{ID: e.ID, Reminder: e.Record})
	}
	return out, nil
}

// SetReminderActive pauses or resumes a reminder.
func (s *Service) SetReminderActive(id string, active bool) error {
	_, err := s.reminders.Update(id, func(r *Reminder) error {
		r.Active = active
		return nil
	})
	if errors.Is(err, filestore.ErrNotFound) {
		return ErrReminderNotFound
	}
	return err
}

// DeleteReminder removes a reminder.
func (s *Service) DeleteReminder(id string) error {
	_, err := s.reminders.Delete(id)
	if errors.Is(err, filestore.ErrNotFound) {
		return ErrReminderNotFound
	}
	return err
}
