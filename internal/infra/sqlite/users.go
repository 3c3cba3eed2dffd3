package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/timecard-io/timecard/internal/domain"
)

// InsertUser stores a new platform account.
func (d *DB) InsertUser(u domain.User) error {
	_, err := d.db.Exec(
		`INSERT INTO users (id, name, operator_id, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.OperatorID, u.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id. Returns (nil, nil) when not found.
func (d *DB) GetUser(id string) (*domain.User, error) {
	row := d.db.QueryRow(
		`SELECT id, name, operator_id, active_entry_id, created_at
		 FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// GetUserByName retrieves a user by name (CLI identity lookup).
// Returns (nil, nil) when not found.
func (d *DB) GetUserByName(name string) (*domain.User, error) {
	row := d.db.QueryRow(
		`SELECT id, name, operator_id, active_entry_id, created_at
		 FROM users WHERE name = ? ORDER BY created_at LIMIT 1`, name,
	)
	return scanUser(row)
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var activeEntry sql.NullString
	var createdAt int64

	err := s.Scan(&u.ID, &u.Name, &u.OperatorID, &activeEntry, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	if activeEntry.Valid {
		u.ActiveEntryID = activeEntry.String
	}
	u.CreatedAt = unixTime(createdAt)
	return &u, nil
}
