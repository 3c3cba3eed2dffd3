// Package domain holds the core entities of the timecard service:
// users, projects, stages, tasks, and the time entries recorded
// against them. Entities are plain structs; derived values (duration,
// entry state, the per-user running timer) are computed on read.
package domain

import "time"

// EntryState tracks the time entry lifecycle. An entry is RUNNING from
// the moment it is started until it is stopped; STOPPED is terminal.
type EntryState string

const (
	EntryRunning EntryState = "RUNNING"
	EntryStopped EntryState = "STOPPED"
)

// User is a platform account. OperatorID links the account to an
// employee record; accounts without that link may not own or access
// project data. ActiveEntryID is the weak reference to the single time
// entry the user currently has running, if any.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OperatorID    string    `json:"operator_id,omitempty"`
	ActiveEntryID string    `json:"active_entry_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsOperator reports whether the user is linked to an operator identity.
func (u *User) IsOperator() bool { return u.OperatorID != "" }

// Project is the top of the ownership hierarchy. CreatedBy is set at
// creation and never changes.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Stage is a task type/kanban column. A stage may be shared by several
// projects; the association set lives in the store.
type Stage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Task belongs to exactly one project (immutable) and sits in exactly
// one stage (mutable).
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ProjectID string    `json:"project_id"`
	StageID   string    `json:"stage_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeEntry records a span of work on a task. ProjectID and EmployeeID
// are denormalized at creation (the task's project, the creating user's
// operator identity). EndTime nil means the entry is still running.
type TimeEntry struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	ProjectID  string     `json:"project_id"`
	EmployeeID string     `json:"employee_id"`
	CreatedBy  string     `json:"created_by"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Running reports whether the entry has no end time yet.
func (e *TimeEntry) Running() bool { return e.EndTime == nil }

// State derives the lifecycle state from EndTime.
func (e *TimeEntry) State() EntryState {
	if e.Running() {
		return EntryRunning
	}
	return EntryStopped
}

// Duration returns the entry length in whole seconds, floored.
// A running entry has duration 0 until it is stopped.
func (e *TimeEntry) Duration() int64 {
	if e.Running() {
		return 0
	}
	d := int64(e.EndTime.Sub(e.StartTime).Seconds())
	if d < 0 {
		return 0
	}
	return d
}

// NameRef is an id+name pair used in read projections for related
// records (a task's project, a stage's projects, ...).
type NameRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
