package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/photocard/photocard-api/internal/pkg/database"
)

// Repository defines user data access
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByNickname(ctx context.Context, nickname string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, email, nickname *string) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const selectUser = `
	SELECT id, email, nickname, password_hash, points, created_at, updated_at
	FROM users
`

// Create inserts user and fills ID and timestamps
func (r *repository) Create(ctx context.Context, user *User) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (email, nickname, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, points, created_at, updated_at
	`, user.Email, user.Nickname, user.PasswordHash).Scan(&user.ID, &user.Points, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err, "user repository create")
	}
	return nil
}

// GetByID returns nil, nil when the user does not exist
func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *repository) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	return r.getOne(ctx, selectUser+` WHERE nickname = $1`, nickname)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user repository get: %w", err)
	}
	return &u, nil
}

// UpdateProfile sets the non-nil fields
func (r *repository) UpdateProfile(ctx context.Context, id int64, email, nickname *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = COALESCE($2, email),
		    nickname = COALESCE($3, nickname),
		    updated_at = now()
		WHERE id = $1
	`, id, email, nickname)
	if err != nil {
		return mapUniqueViolation(err, "user repository update")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository update: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func mapUniqueViolation(err error, op string) error {
	switch {
	case database.IsUniqueViolation(err, "users_email_key"):
		return ErrEmailTaken
	case database.IsUniqueViolation(err, "users_nickname_key"):
		return ErrNicknameTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
