// Package ledger owns the time entry lifecycle. An entry is created
// only by starting a timer and mutated only by stopping it; the single
// invariant needing cross-request coordination, at most one running
// entry per user, is enforced by the store's transactional
// check-and-set on the user's active entry reference.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timecard-io/timecard/internal/app/access"
	"github.com/timecard-io/timecard/internal/domain"
	"github.com/timecard-io/timecard/internal/infra/metrics"
	"github.com/timecard-io/timecard/internal/infra/sqlite"
)

// Ledger manages time entry state transitions.
type Ledger struct {
	db    *sqlite.DB
	guard *access.Guard
}

// New creates a ledger.
func New(db *sqlite.DB, guard *access.Guard) *Ledger {
	return &Ledger{db: db, guard: guard}
}

// Start begins a timer for the actor on the given task. The entry's
// project and employee are denormalized from the task and the actor at
// creation; start time and created-at come from a single now. Fails
// with domain.ErrAlreadyRunning while the actor has any running entry.
func (l *Ledger) Start(actor *domain.User, taskID string) (*domain.TimeEntry, error) {
	task, err := l.db.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("start timer: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("start timer: task %s: %w", taskID, domain.ErrNotFound)
	}

	if err := l.guard.Check(actor, access.TaskRef(taskID)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := domain.TimeEntry{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		ProjectID:  task.ProjectID,
		EmployeeID: actor.OperatorID,
		CreatedBy:  actor.ID,
		StartTime:  now,
		CreatedAt:  now,
	}

	if err := l.db.StartEntry(entry); err != nil {
		if err == domain.ErrAlreadyRunning {
			metrics.TimerRejections.WithLabelValues("already_running").Inc()
		}
		return nil, err
	}

	metrics.TimersStarted.Inc()
	return &entry, nil
}

// Stop ends the actor's running timer, provided it is on the given
// task. Fails with domain.ErrNoActiveEntry when no entry is running or
// the running entry belongs to another task. Stopped is terminal: there
// is no resume.
func (l *Ledger) Stop(actor *domain.User, taskID string) (*domain.TimeEntry, error) {
	if err := l.guard.Check(actor, access.TaskRef(taskID)); err != nil {
		return nil, err
	}

	entry, err := l.db.StopEntry(actor.ID, taskID, time.Now().UTC())
	if err != nil {
		if err == domain.ErrNoActiveEntry {
			metrics.TimerRejections.WithLabelValues("no_active_entry").Inc()
		}
		return nil, err
	}

	metrics.TimersStopped.Inc()
	metrics.RecordedSeconds.Add(float64(entry.Duration()))
	return entry, nil
}

// Running returns the actor's running entry, or nil when no timer is
// active. The user row holds the authoritative reference.
func (l *Ledger) Running(actor *domain.User) (*domain.TimeEntry, error) {
	u, err := l.db.GetUser(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("running entry: %w", err)
	}
	if u == nil || u.ActiveEntryID == "" {
		return nil, nil
	}
	return l.db.GetEntry(u.ActiveEntryID)
}
