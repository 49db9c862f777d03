package database

import (
	"strings"

	"github.com/QuickRoll12/quickroll-backend/models"
	"github.com/QuickRoll12/quickroll-backend/sessions"
)

// RecordSessionResult persists the end-of-session summary. Called once per
// session end; the lifecycle manager logs and ignores failures.
func (s *Store) RecordSessionResult(summary sessions.EndSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := models.SessionReport{
		Department: summary.Key.Department,
		Semester:   summary.Key.Semester,
		Section:    summary.Key.Section,
		FacultyID:  summary.FacultyID,
		Total:      len(summary.Present) + len(summary.Absent),
		Present:    strings.Join(summary.Present, ","),
		Absent:     strings.Join(summary.Absent, ","),
		EndedAt:    summary.EndedAt,
	}
	return s.db.Create(&report).Error
}
