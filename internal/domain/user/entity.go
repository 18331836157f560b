package user

import (
	"database/sql"
	"time"
)

// User represents a row of the users table
type User struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	Nickname     string         `db:"nickname"`
	PasswordHash sql.NullString `db:"password_hash"`
	Points       int64          `db:"points"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// HasPassword is false for accounts created through an external provider
func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}
