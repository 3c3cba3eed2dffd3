// Package records exposes the create/read/search/update/delete surface
// for projects, stages, tasks, and time entries. Every read projects
// entities into caller-facing records carrying only ids, display names,
// derived durations, related refs, and creation timestamps.
package records

import (
	"strings"
	"time"

	"github.com/timecard-io/timecard/internal/domain"
)

// Page carries pagination and ordering for search operations. Order
// keys are whitelisted per entity; a leading '-' means descending.
type Page struct {
	Limit  int
	Offset int
	Order  string
}

const defaultLimit = 100

func (p Page) limit() int {
	if p.Limit <= 0 {
		return defaultLimit
	}
	return p.Limit
}

// checkOrder validates an order key against the keys a listing accepts.
func checkOrder(key string, allowed ...string) error {
	if key == "" {
		return nil
	}
	bare := strings.TrimPrefix(key, "-")
	for _, a := range allowed {
		if bare == a {
			return nil
		}
	}
	return domain.Invalid("unknown order key %q", key)
}

// ─── Projections ────────────────────────────────────────────────────────────

// ProjectRecord is the caller-facing view of a project.
type ProjectRecord struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Duration        int64            `json:"duration"`
	DurationDisplay string           `json:"duration_display"`
	Stages          []domain.NameRef `json:"stages"`
	CreatedAt       time.Time        `json:"created_at"`
}

// TaskRecord is the caller-facing view of a task. RunningEntryID is
// set when the acting user's running entry belongs to this task.
type TaskRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ProjectID       string    `json:"project_id"`
	StageID         string    `json:"stage_id"`
	Duration        int64     `json:"duration"`
	DurationDisplay string    `json:"duration_display"`
	RunningEntryID  string    `json:"running_entry_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// StageRecord is the caller-facing view of a stage.
type StageRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Projects  []domain.NameRef `json:"projects"`
	Tasks     []domain.NameRef `json:"tasks"`
	CreatedAt time.Time        `json:"created_at"`
}

// EntryRecord is the caller-facing view of a time entry.
type EntryRecord struct {
	ID              string            `json:"id"`
	TaskID          string            `json:"task_id"`
	ProjectID       string            `json:"project_id"`
	EmployeeID      string            `json:"employee_id"`
	State           domain.EntryState `json:"state"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         *time.Time        `json:"end_time,omitempty"`
	Duration        int64             `json:"duration"`
	DurationDisplay string            `json:"duration_display"`
	CreatedAt       time.Time         `json:"created_at"`
}

func entryRecord(e *domain.TimeEntry) *EntryRecord {
	d := e.Duration()
	return &EntryRecord{
		ID:              e.ID,
		TaskID:          e.TaskID,
		ProjectID:       e.ProjectID,
		EmployeeID:      e.EmployeeID,
		State:           e.State(),
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Duration:        d,
		DurationDisplay: domain.FormatDuration(d),
		CreatedAt:       e.CreatedAt,
	}
}
