package quiz

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var reportHeader = []string{"timestamp", "topic", "score", "total", "percentage", "details"}

const reportTimeLayout = "2006-01-02 15:04:05"

// Report is one row of the quiz score log.
type Report struct {
	Timestamp  time.Time
	Topic      string
	Score      int
	Total      int
	Percentage float64
}

func (r Report) row() []string {
	return []string{
		r.Timestamp.Format(reportTimeLayout),
		r.Topic,
		strconv.Itoa(r.Score),
		strconv.Itoa(r.Total),
		fmt.Sprintf("%.1f%%", r.Percentage),
		fmt.Sprintf("%d/%d correct", r.Score, r.Total),
	}
}

// ReportLog appends quiz results to a CSV file with a fixed header.
type ReportLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewReportLog opens the log at path. The file and header are created on
// the first append.
func NewReportLog(path string) *ReportLog {
	return &ReportLog{path: path, now: time.Now}
}

// Append records a graded quiz.
func (l *ReportLog) Append(topic string, res *Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	_, statErr := os.Stat(l.path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(reportHeader); err != nil {
			return fmt.Errorf("write report header: %w", err)
		}
	}
	rep := Report{
		Timestamp:  l.now(),
		Topic:      topic,
		Score:      res.Score,
		Total:      res.Total,
		Percentage: res.Percentage,
	}
	if err := w.Write(rep.row()); err != nil {
		return fmt.Errorf("write report row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report log: %w", err)
	}
	return f.Close()
}

// History returns every row keyed by header name, oldest first. A missing
// log is an empty history.
func (l *ReportLog) History() ([]map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open report log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report header: %w", err)
	}

	history := []map[string]string{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read report row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		history = append(history, row)
	}
	return history, nil
}
