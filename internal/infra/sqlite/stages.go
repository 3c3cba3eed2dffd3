package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/timecard-io/timecard/internal/domain"
)

// StageFilter narrows ListStages. ProjectIDs is required by the facade:
// stages are always searched within a set of projects.
type StageFilter struct {
	ProjectIDs []string
	CreatedBy  string
	Limit      int
	Offset     int
	Order      string
}

// InsertStage stores a new stage and its project associations in one
// transaction.
func (d *DB) InsertStage(s domain.Stage, projectIDs []string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("insert stage: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO stages (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Name, s.CreatedBy, s.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert stage: %w", err)
	}

	for _, pid := range projectIDs {
		_, err = tx.Exec(
			`INSERT INTO project_stages (project_id, stage_id) VALUES (?, ?)`,
			pid, s.ID,
		)
		if err != nil {
			return fmt.Errorf("link stage to project %s: %w", pid, err)
		}
	}

	return tx.Commit()
}

// GetStage retrieves a stage by id. Returns (nil, nil) when not found.
func (d *DB) GetStage(id string) (*domain.Stage, error) {
	row := d.db.QueryRow(
		`SELECT id, name, created_by, created_at FROM stages WHERE id = ?`, id,
	)
	return scanStage(row)
}

// ListStages returns stages linked to any of the filter's projects.
func (d *DB) ListStages(f StageFilter) ([]domain.Stage, error) {
	placeholders := strings.Repeat("?,", len(f.ProjectIDs))
	placeholders = strings.TrimSuffix(placeholders, ",")

	query := `SELECT DISTINCT s.id, s.name, s.created_by, s.created_at FROM stages s
		 JOIN project_stages ps ON ps.stage_id = s.id
		 WHERE ps.project_id IN (` + placeholders + `) AND s.created_by = ?
		 ORDER BY s.` + orderSQL(f.Order, "created_at ASC") + limitSQL(f.Limit, f.Offset)

	args := make([]any, 0, len(f.ProjectIDs)+1)
	for _, pid := range f.ProjectIDs {
		args = append(args, pid)
	}
	args = append(args, f.CreatedBy)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var stages []domain.Stage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, *s)
	}
	return stages, rows.Err()
}

// RenameStage updates a stage's name.
func (d *DB) RenameStage(id, name string) error {
	result, err := d.db.Exec(`UPDATE stages SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename stage: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteStage removes a stage and its project links.
func (d *DB) DeleteStage(id string) error {
	result, err := d.db.Exec(`DELETE FROM stages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// StageProjects returns the projects a stage is associated with.
func (d *DB) StageProjects(stageID string) ([]domain.NameRef, error) {
	rows, err := d.db.Query(
		`SELECT p.id, p.name FROM projects p
		 JOIN project_stages ps ON ps.project_id = p.id
		 WHERE ps.stage_id = ? ORDER BY p.created_at`, stageID,
	)
	if err != nil {
		return nil, fmt.Errorf("stage projects: %w", err)
	}
	defer rows.Close()
	return collectNameRefs(rows)
}

// StageTasks returns the tasks currently sitting in a stage.
func (d *DB) StageTasks(stageID string) ([]domain.NameRef, error) {
	rows, err := d.db.Query(
		`SELECT id, name FROM tasks WHERE stage_id = ? ORDER BY created_at`, stageID,
	)
	if err != nil {
		return nil, fmt.Errorf("stage tasks: %w", err)
	}
	defer rows.Close()
	return collectNameRefs(rows)
}

func scanStage(s scanner) (*domain.Stage, error) {
	var st domain.Stage
	var createdAt int64

	err := s.Scan(&st.ID, &st.Name, &st.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	st.CreatedAt = unixTime(createdAt)
	return &st, nil
}
