package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/timecard-io/timecard/internal/domain"
)

// EntryFilter narrows ListEntries.
type EntryFilter struct {
	TaskID    string
	ProjectID string
	CreatedBy string
	Limit     int
	Offset    int
	Order     string
}

// StartEntry inserts a running entry and sets the creator's active
// entry reference in one transaction. The read of the active reference,
// the insert, and the reference update commit as a unit: with the
// single shared SQLite connection, two concurrent starts by the same
// user cannot both pass the check. Returns domain.ErrAlreadyRunning if
// the user already has a running entry.
func (d *DB) StartEntry(e domain.TimeEntry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("start entry: %w", err)
	}
	defer tx.Rollback()

	var active sql.NullString
	err = tx.QueryRow(
		`SELECT active_entry_id FROM users WHERE id = ?`, e.CreatedBy,
	).Scan(&active)
	if err == sql.ErrNoRows {
		return fmt.Errorf("start entry: user %s: %w", e.CreatedBy, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("start entry: read active ref: %w", err)
	}
	if active.Valid {
		return domain.ErrAlreadyRunning
	}

	_, err = tx.Exec(
		`INSERT INTO time_entries (id, task_id, project_id, employee_id, created_by, start_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TaskID, e.ProjectID, e.EmployeeID, e.CreatedBy,
		e.StartTime.Unix(), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("start entry: insert: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE users SET active_entry_id = ? WHERE id = ?`, e.ID, e.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("start entry: set active ref: %w", err)
	}

	return tx.Commit()
}

// StopEntry ends the user's running entry, provided it belongs to the
// given task. End time and duration are written from the single now the
// caller resolved, and the active reference is cleared, all in one
// transaction. Returns domain.ErrNoActiveEntry if the user has no
// running entry or it is on a different task.
func (d *DB) StopEntry(userID, taskID string, now time.Time) (*domain.TimeEntry, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("stop entry: %w", err)
	}
	defer tx.Rollback()

	var active sql.NullString
	err = tx.QueryRow(
		`SELECT active_entry_id FROM users WHERE id = ?`, userID,
	).Scan(&active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stop entry: user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stop entry: read active ref: %w", err)
	}
	if !active.Valid {
		return nil, domain.ErrNoActiveEntry
	}

	row := tx.QueryRow(
		`SELECT id, task_id, project_id, employee_id, created_by, start_time, end_time, created_at
		 FROM time_entries WHERE id = ?`, active.String,
	)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("stop entry: read entry: %w", err)
	}
	if e == nil || e.TaskID != taskID {
		return nil, domain.ErrNoActiveEntry
	}

	end := now.UTC()
	duration := int64(end.Sub(e.StartTime).Seconds())
	if duration < 0 {
		duration = 0
	}

	_, err = tx.Exec(
		`UPDATE time_entries SET end_time = ?, duration = ? WHERE id = ?`,
		end.Unix(), duration, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("stop entry: write end: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE users SET active_entry_id = NULL WHERE id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("stop entry: clear active ref: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("stop entry: %w", err)
	}

	e.EndTime = &end
	return e, nil
}

// GetEntry retrieves a time entry by id. Returns (nil, nil) when not found.
func (d *DB) GetEntry(id string) (*domain.TimeEntry, error) {
	row := d.db.QueryRow(
		`SELECT id, task_id, project_id, employee_id, created_by, start_time, end_time, created_at
		 FROM time_entries WHERE id = ?`, id,
	)
	return scanEntry(row)
}

// ListEntries returns entries matching the filter.
func (d *DB) ListEntries(f EntryFilter) ([]domain.TimeEntry, error) {
	query := `SELECT id, task_id, project_id, employee_id, created_by, start_time, end_time, created_at
		 FROM time_entries WHERE created_by = ?`
	args := []any{f.CreatedBy}

	if f.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, f.TaskID)
	}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	query += ` ORDER BY ` + orderSQL(f.Order, "start_time DESC") + limitSQL(f.Limit, f.Offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes a time entry. If it was somebody's running entry
// the active reference clears via ON DELETE SET NULL.
func (d *DB) DeleteEntry(id string) error {
	result, err := d.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TaskEntries returns every entry owned by a task, oldest first.
func (d *DB) TaskEntries(taskID string) ([]domain.TimeEntry, error) {
	return d.entriesWhere(`task_id = ?`, taskID)
}

// ProjectEntries returns every entry aggregated under a project
// (transitively through its tasks), oldest first.
func (d *DB) ProjectEntries(projectID string) ([]domain.TimeEntry, error) {
	return d.entriesWhere(`project_id = ?`, projectID)
}

func (d *DB) entriesWhere(cond string, arg any) ([]domain.TimeEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, task_id, project_id, employee_id, created_by, start_time, end_time, created_at
		 FROM time_entries WHERE `+cond+` ORDER BY start_time`, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("entries where %s: %w", cond, err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// SumTaskDuration returns the total recorded seconds for a task.
// Running entries carry duration 0 until stopped, so they contribute
// nothing to the sum.
func (d *DB) SumTaskDuration(taskID string) (int64, error) {
	return d.sumDuration(`task_id = ?`, taskID)
}

// SumProjectDuration returns the total recorded seconds for a project.
func (d *DB) SumProjectDuration(projectID string) (int64, error) {
	return d.sumDuration(`project_id = ?`, projectID)
}

func (d *DB) sumDuration(cond string, arg any) (int64, error) {
	var total sql.NullInt64
	err := d.db.QueryRow(
		`SELECT COALESCE(SUM(duration), 0) FROM time_entries WHERE `+cond, arg,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum duration: %w", err)
	}
	return total.Int64, nil
}

func scanEntry(s scanner) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	var startTime, createdAt int64
	var endTime sql.NullInt64

	err := s.Scan(&e.ID, &e.TaskID, &e.ProjectID, &e.EmployeeID, &e.CreatedBy,
		&startTime, &endTime, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	e.StartTime = unixTime(startTime)
	if endTime.Valid {
		t := unixTime(endTime.Int64)
		e.EndTime = &t
	}
	e.CreatedAt = unixTime(createdAt)
	return &e, nil
}
