package health

// HistoryEntry is one recorded symptom analysis.
type HistoryEntry struct {
	Type      string `json:"type"`
	Symptoms  string `json:"symptoms"`
	Analysis  string `json:"analysis"`
	Timestamp string `json:"timestamp"`
}

// record appends to the history. A failed write does not fail the
// analysis that produced it.
func (s *Service) record(e HistoryEntry) {
	if err := s.history.Append(e); err != nil {
		s.log.Error("saving health history failed", "error", err)
	}
}

// History returns the recorded analyses, oldest first.
func (s *Service) History() ([]HistoryEntry, error) {
	entries, err := s.history.All()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}
