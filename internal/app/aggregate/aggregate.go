// Package aggregate computes derived duration totals for tasks and
// projects. Totals are recomputed from the current entry set on every
// read path that needs them; nothing is cached, so there is no
// staleness to reason about.
package aggregate

import (
	"github.com/timecard-io/timecard/internal/domain"
	"github.com/timecard-io/timecard/internal/infra/sqlite"
)

// TotalDuration sums the derived duration of the given entries in
// seconds. A running entry contributes nothing until it is stopped.
func TotalDuration(entries []domain.TimeEntry) int64 {
	var total int64
	for i := range entries {
		total += entries[i].Duration()
	}
	return total
}

// Total is a duration sum with its display form.
type Total struct {
	Seconds int64  `json:"seconds"`
	Display string `json:"display"`
}

// Service answers duration rollups straight from the store.
type Service struct {
	db *sqlite.DB
}

// NewService creates an aggregation service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// TaskTotal returns the summed duration of a task's entries.
func (s *Service) TaskTotal(taskID string) (Total, error) {
	secs, err := s.db.SumTaskDuration(taskID)
	if err != nil {
		return Total{}, err
	}
	return Total{Seconds: secs, Display: domain.FormatDuration(secs)}, nil
}

// ProjectTotal returns the summed duration of every entry aggregated
// under a project, transitively through its tasks.
func (s *Service) ProjectTotal(projectID string) (Total, error) {
	secs, err := s.db.SumProjectDuration(projectID)
	if err != nil {
		return Total{}, err
	}
	return Total{Seconds: secs, Display: domain.FormatDuration(secs)}, nil
}
