package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/timecard-io/timecard/internal/domain"
)

// TaskFilter narrows ListTasks. ProjectID is required by the facade:
// tasks are always searched within a project.
type TaskFilter struct {
	ProjectID string
	CreatedBy string
	Limit     int
	Offset    int
	Order     string
}

// InsertTask stores a new task.
func (d *DB) InsertTask(t domain.Task) error {
	_, err := d.db.Exec(
		`INSERT INTO tasks (id, name, project_id, stage_id, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.ProjectID, t.StageID, t.CreatedBy, t.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id. Returns (nil, nil) when not found.
func (d *DB) GetTask(id string) (*domain.Task, error) {
	row := d.db.QueryRow(
		`SELECT id, name, project_id, stage_id, created_by, created_at
		 FROM tasks WHERE id = ?`, id,
	)
	return scanTask(row)
}

// ListTasks returns tasks matching the filter.
func (d *DB) ListTasks(f TaskFilter) ([]domain.Task, error) {
	query := `SELECT id, name, project_id, stage_id, created_by, created_at FROM tasks
		 WHERE project_id = ? AND created_by = ?
		 ORDER BY ` + orderSQL(f.Order, "created_at ASC") + limitSQL(f.Limit, f.Offset)

	rows, err := d.db.Query(query, f.ProjectID, f.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask changes a task's name and/or stage. Empty values leave the
// field untouched. Project and creator are immutable.
func (d *DB) UpdateTask(id, name, stageID string) error {
	if name == "" && stageID == "" {
		return nil
	}

	query := `UPDATE tasks SET `
	var args []any
	if name != "" {
		query += `name = ?`
		args = append(args, name)
	}
	if stageID != "" {
		if name != "" {
			query += `, `
		}
		query += `stage_id = ?`
		args = append(args, stageID)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	result, err := d.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task. Its time entries cascade.
func (d *DB) DeleteTask(id string) error {
	result, err := d.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var createdAt int64

	err := s.Scan(&t.ID, &t.Name, &t.ProjectID, &t.StageID, &t.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	t.CreatedAt = unixTime(createdAt)
	return &t, nil
}
