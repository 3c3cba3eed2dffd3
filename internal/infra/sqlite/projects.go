package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/timecard-io/timecard/internal/domain"
)

// ProjectFilter narrows ListProjects. CreatedBy is always set by the
// facade: listings are scoped to the acting user's own records.
type ProjectFilter struct {
	CreatedBy string
	Limit     int
	Offset    int
	Order     string
}

// InsertProject stores a new project.
func (d *DB) InsertProject(p domain.Project) error {
	_, err := d.db.Exec(
		`INSERT INTO projects (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.CreatedBy, p.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id. Returns (nil, nil) when not found.
func (d *DB) GetProject(id string) (*domain.Project, error) {
	row := d.db.QueryRow(
		`SELECT id, name, created_by, created_at FROM projects WHERE id = ?`, id,
	)
	return scanProject(row)
}

// ListProjects returns projects matching the filter.
func (d *DB) ListProjects(f ProjectFilter) ([]domain.Project, error) {
	query := `SELECT id, name, created_by, created_at FROM projects WHERE created_by = ?
		 ORDER BY ` + orderSQL(f.Order, "created_at DESC") + limitSQL(f.Limit, f.Offset)

	rows, err := d.db.Query(query, f.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// RenameProject updates a project's name. Creator and id are immutable.
func (d *DB) RenameProject(id, name string) error {
	result, err := d.db.Exec(`UPDATE projects SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteProject removes a project. Tasks and their time entries cascade.
func (d *DB) DeleteProject(id string) error {
	result, err := d.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ProjectStages returns the stages associated with a project as
// id+name pairs, for read projections.
func (d *DB) ProjectStages(projectID string) ([]domain.NameRef, error) {
	rows, err := d.db.Query(
		`SELECT s.id, s.name FROM stages s
		 JOIN project_stages ps ON ps.stage_id = s.id
		 WHERE ps.project_id = ? ORDER BY s.created_at`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("project stages: %w", err)
	}
	defer rows.Close()
	return collectNameRefs(rows)
}

func scanProject(s scanner) (*domain.Project, error) {
	var p domain.Project
	var createdAt int64

	err := s.Scan(&p.ID, &p.Name, &p.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt = unixTime(createdAt)
	return &p, nil
}

func collectNameRefs(rows *sql.Rows) ([]domain.NameRef, error) {
	var refs []domain.NameRef
	for rows.Next() {
		var r domain.NameRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
