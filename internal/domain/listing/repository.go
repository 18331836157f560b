package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/photocard/photocard-api/internal/pkg/database"
)

// Repository defines listing data access
type Repository interface {
	GetByID(ctx context.Context, id int64) (*View, error)
	// List returns at most fetch listings with id < cursor, newest first
	List(ctx context.Context, f Filter, cursor *int64, fetch int) ([]View, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx holds row locks for the duration of a listing change
type Tx interface {
	// LockUserCard returns nil, nil when the card stack does not exist
	LockUserCard(ctx context.Context, id int64) (*UserCard, error)
	// LockListing returns nil, nil when the listing does not exist
	LockListing(ctx context.Context, id int64) (*Listing, error)
	// ListedQuantity sums remaining units of active listings on userCardID, skipping excludeID
	ListedQuantity(ctx context.Context, userCardID, excludeID int64) (int, error)
	Insert(ctx context.Context, l *Listing) error
	UpdateTerms(ctx context.Context, id int64, quantity, remaining int, price int64) error
	SetStatus(ctx context.Context, id int64, status Status) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates listing repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const viewSelect = `
	SELECT l.id, l.seller_user_id, l.user_card_id, l.photo_card_id, l.quantity, l.remaining_quantity,
	       l.price_per_unit, l.status, l.created_at, l.updated_at,
	       pc.name AS card_name, pc.grade, pc.genre, pc.image_url
	FROM listings l
	JOIN photo_cards pc ON pc.id = l.photo_card_id
`

func (r *repository) GetByID(ctx context.Context, id int64) (*View, error) {
	var v View
	err := r.db.GetContext(ctx, &v, viewSelect+` WHERE l.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &v, nil
}

func (r *repository) List(ctx context.Context, f Filter, cursor *int64, fetch int) ([]View, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	if f.Status != "" {
		where = append(where, "l.status = ?")
		args = append(args, f.Status)
	}
	if f.Grade != "" {
		where = append(where, "pc.grade = ?")
		args = append(args, f.Grade)
	}
	if f.Genre != "" {
		where = append(where, "pc.genre = ?")
		args = append(args, f.Genre)
	}
	if cursor != nil {
		where = append(where, "l.id < ?")
		args = append(args, *cursor)
	}
	args = append(args, fetch)

	query := r.db.Rebind(viewSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY l.id DESC LIMIT ?`)
	views := make([]View, 0, fetch)
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return views, nil
}

func (r *repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &listingTx{tx: tx})
	})
}

type listingTx struct {
	tx *sqlx.Tx
}

func (t *listingTx) LockUserCard(ctx context.Context, id int64) (*UserCard, error) {
	var uc UserCard
	err := t.tx.GetContext(ctx, &uc, `
		SELECT id, user_id, photo_card_id, quantity
		FROM user_cards
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock user card: %w", err)
	}
	return &uc, nil
}

func (t *listingTx) LockListing(ctx context.Context, id int64) (*Listing, error) {
	var l Listing
	err := t.tx.GetContext(ctx, &l, `
		SELECT id, seller_user_id, user_card_id, photo_card_id, quantity, remaining_quantity,
		       price_per_unit, status, created_at, updated_at
		FROM listings
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock listing: %w", err)
	}
	return &l, nil
}

func (t *listingTx) ListedQuantity(ctx context.Context, userCardID, excludeID int64) (int, error) {
	var n int
	err := t.tx.GetContext(ctx, &n, `
		SELECT COALESCE(SUM(remaining_quantity), 0)
		FROM listings
		WHERE user_card_id = $1 AND status = 'ACTIVE' AND id <> $2
	`, userCardID, excludeID)
	if err != nil {
		return 0, fmt.Errorf("sum listed quantity: %w", err)
	}
	return n, nil
}

func (t *listingTx) Insert(ctx context.Context, l *Listing) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO listings (seller_user_id, user_card_id, photo_card_id, quantity, remaining_quantity, price_per_unit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, l.SellerUserID, l.UserCardID, l.PhotoCardID, l.Quantity, l.RemainingQuantity, l.PricePerUnit, l.Status).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (t *listingTx) UpdateTerms(ctx context.Context, id int64, quantity, remaining int, price int64) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE listings
		SET quantity = $2, remaining_quantity = $3, price_per_unit = $4, updated_at = now()
		WHERE id = $1
	`, id, quantity, remaining, price)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

func (t *listingTx) SetStatus(ctx context.Context, id int64, status Status) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE listings SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set listing status: %w", err)
	}
	return nil
}
