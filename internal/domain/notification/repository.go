package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository defines notification data access
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// ListByUser returns the newest notifications first
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Notification, error)
	CountUnreadByUser(ctx context.Context, userID int64) (int, error)
	// TouchReadProgress records one detail view and returns the updated row.
	// The first view sets seen_at; any later view sets is_read.
	// Returns nil, nil when the notification does not belong to userID.
	TouchReadProgress(ctx context.Context, id, userID int64) (*Notification, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const notificationColumns = `id, user_id, type, entity_type, entity_id, message, is_read, seen_at, created_at`

func (r *repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, entity_type, entity_id, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, n.UserID, n.Type, n.EntityType, n.EntityID, n.Message).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	notifications := make([]*Notification, 0, limit)
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (r *repository) CountUnreadByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *repository) TouchReadProgress(ctx context.Context, id, userID int64) (*Notification, error) {
	// seen_at on the right-hand side is the value before this update
	query := `
		UPDATE notifications
		SET seen_at = COALESCE(seen_at, NOW()),
		    is_read = CASE WHEN seen_at IS NOT NULL THEN TRUE ELSE is_read END
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns
	var n Notification
	if err := r.db.GetContext(ctx, &n, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("touch notification: %w", err)
	}
	return &n, nil
}

// DeleteReadOlderThan removes read notifications created before cutoff
func (r *repository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < $1 AND is_read`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return result.RowsAffected()
}
