// Package db pkg/db/users.go implements user storage.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/R0eii/Tucan/pkg/models"
)

func (db *DB) CreateUser(user *models.User) error {
	const insertSQL = `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(insertSQL, user.ID, user.Name, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("%w user: %w", ErrFailedToInsert, err)
	}

	return nil
}

func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	return db.getUser("SELECT id, name, email, password_hash, role FROM users WHERE email = ?", email)
}

func (db *DB) GetUserByID(id string) (*models.User, error) {
	return db.getUser("SELECT id, name, email, password_hash, role FROM users WHERE id = ?", id)
}

func (db *DB) getUser(query, arg string) (*models.User, error) {
	var u models.User

	err := db.QueryRow(query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w user: %w", ErrFailedToQuery, err)
	}

	return &u, nil
}

func (db *DB) UpdateUser(user *models.User) error {
	result, err := db.Exec(
		"UPDATE users SET name = ?, email = ? WHERE id = ?",
		user.Name, user.Email, user.ID)
	if err != nil {
		return fmt.Errorf("%w user: %w", ErrFailedToUpdate, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w user: %w", ErrFailedToUpdate, err)
	}

	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// EmailInUse reports whether another user already owns the given email.
func (db *DB) EmailInUse(email, excludeUserID string) (bool, error) {
	var count int

	err := db.QueryRow(
		"SELECT COUNT(*) FROM users WHERE email = ? AND id != ?",
		email, excludeUserID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w email check: %w", ErrFailedToQuery, err)
	}

	return count > 0, nil
}
