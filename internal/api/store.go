package api

import (
	"sync"

	"github.com/wonny/macrowatch/internal/report"
)

// ReportStore holds the most recent completed run's report in memory.
type ReportStore struct {
	mu     sync.RWMutex
	latest *report.Report
}

// NewReportStore creates an empty store.
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Set replaces the latest report.
func (s *ReportStore) Set(rep *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = rep
}

// Latest returns the latest report, or nil before the first run.
func (s *ReportStore) Latest() *report.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
