package photocard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/photocard/photocard-api/internal/pkg/database"
)

// Repository defines photo card data access
type Repository interface {
	GetByID(ctx context.Context, id int64) (*PhotoCard, error)
	// List returns at most fetch cards with id < cursor, newest first
	List(ctx context.Context, cursor *int64, fetch int) ([]PhotoCard, error)
	Update(ctx context.Context, id int64, patch Patch) error

	ListGallery(ctx context.Context, userID int64, filter GalleryFilter, limit, offset int) ([]GalleryItem, error)
	CountGallery(ctx context.Context, userID int64, filter GalleryFilter) (int, error)
	// SumQuantityByGrade counts owned copies per grade, ignoring filters
	SumQuantityByGrade(ctx context.Context, userID int64) (map[string]int, error)

	RunInTx(ctx context.Context, fn func(ctx context.Context, tx CreateTx) error) error
}

// CreateTx is what card creation does inside one transaction
type CreateTx interface {
	// LockCreator serializes creations by the same user
	LockCreator(ctx context.Context, userID int64) error
	CountCreatedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	// FindDuplicate returns the matching design locked for update, or nil
	FindDuplicate(ctx context.Context, fp Fingerprint) (*PhotoCard, error)
	Insert(ctx context.Context, card *PhotoCard) error
	AddUserCard(ctx context.Context, userID, photoCardID int64, quantity int) (int64, error)
	TotalQuantity(ctx context.Context, photoCardID int64) (int, error)
	SetTotalSupply(ctx context.Context, photoCardID int64, total int) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates photo card repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const cardColumns = `id, creator_user_id, name, description, genre, grade, min_price, total_supply, image_url, created_at, updated_at`

func (r *repository) GetByID(ctx context.Context, id int64) (*PhotoCard, error) {
	var c PhotoCard
	err := r.db.GetContext(ctx, &c, `SELECT `+cardColumns+` FROM photo_cards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo card: %w", err)
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, cursor *int64, fetch int) ([]PhotoCard, error) {
	cards := make([]PhotoCard, 0, fetch)
	err := r.db.SelectContext(ctx, &cards, `
		SELECT `+cardColumns+`
		FROM photo_cards
		WHERE ($1::bigint IS NULL OR id < $1)
		ORDER BY id DESC
		LIMIT $2
	`, cursor, fetch)
	if err != nil {
		return nil, fmt.Errorf("list photo cards: %w", err)
	}
	return cards, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Patch) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE photo_cards
		SET name        = COALESCE($2, name),
		    genre       = COALESCE($3, genre),
		    grade       = COALESCE($4, grade),
		    min_price   = COALESCE($5, min_price),
		    image_url   = COALESCE($6, image_url),
		    description = CASE WHEN $7::boolean THEN $8 ELSE description END,
		    updated_at  = now()
		WHERE id = $1
	`, id, p.Name, p.Genre, p.Grade, p.MinPrice, p.ImageURL, p.SetDescription, p.Description)
	if err != nil {
		return fmt.Errorf("update photo card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update photo card: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// galleryWhere builds the shared filter with ? placeholders
func galleryWhere(userID int64, f GalleryFilter) (string, []interface{}) {
	where := []string{"uc.user_id = ?", "uc.quantity > 0"}
	args := []interface{}{userID}

	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		where = append(where, "(pc.name ILIKE ? OR pc.description ILIKE ?)")
		args = append(args, like, like)
	}
	if f.Grade != "" {
		where = append(where, "pc.grade = ?")
		args = append(args, f.Grade)
	}
	if f.Genre != "" {
		where = append(where, "pc.genre = ?")
		args = append(args, f.Genre)
	}
	return strings.Join(where, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *repository) ListGallery(ctx context.Context, userID int64, f GalleryFilter, limit, offset int) ([]GalleryItem, error) {
	where, args := galleryWhere(userID, f)
	query := r.db.Rebind(`
		SELECT uc.id AS user_card_id, uc.photo_card_id, uc.quantity, uc.created_at AS acquired_at,
		       pc.name, pc.description, pc.genre, pc.grade, pc.min_price, pc.image_url, pc.creator_user_id
		FROM user_cards uc
		JOIN photo_cards pc ON pc.id = uc.photo_card_id
		WHERE ` + where + `
		ORDER BY uc.created_at DESC, uc.id DESC
		LIMIT ? OFFSET ?
	`)
	items := make([]GalleryItem, 0, limit)
	if err := r.db.SelectContext(ctx, &items, query, append(args, limit, offset)...); err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}
	return items, nil
}

func (r *repository) CountGallery(ctx context.Context, userID int64, f GalleryFilter) (int, error) {
	where, args := galleryWhere(userID, f)
	query := r.db.Rebind(`
		SELECT COUNT(*)
		FROM user_cards uc
		JOIN photo_cards pc ON pc.id = uc.photo_card_id
		WHERE ` + where)
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count gallery: %w", err)
	}
	return n, nil
}

func (r *repository) SumQuantityByGrade(ctx context.Context, userID int64) (map[string]int, error) {
	var rows []struct {
		Grade string `db:"grade"`
		Qty   int    `db:"qty"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT pc.grade, COALESCE(SUM(uc.quantity), 0) AS qty
		FROM user_cards uc
		JOIN photo_cards pc ON pc.id = uc.photo_card_id
		WHERE uc.user_id = $1
		GROUP BY pc.grade
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("count grades: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Grade] = row.Qty
	}
	return out, nil
}

func (r *repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx CreateTx) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &createTx{tx: tx})
	})
}

type createTx struct {
	tx *sqlx.Tx
}

func (t *createTx) LockCreator(ctx context.Context, userID int64) error {
	var id int64
	err := t.tx.GetContext(ctx, &id, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock creator: %w", err)
	}
	return nil
}

func (t *createTx) CountCreatedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	var n int
	err := t.tx.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM photo_cards
		WHERE creator_user_id = $1 AND created_at >= $2 AND created_at < $3
	`, userID, from, to)
	if err != nil {
		return 0, fmt.Errorf("count monthly cards: %w", err)
	}
	return n, nil
}

func (t *createTx) FindDuplicate(ctx context.Context, fp Fingerprint) (*PhotoCard, error) {
	var c PhotoCard
	err := t.tx.GetContext(ctx, &c, `
		SELECT `+cardColumns+`
		FROM photo_cards
		WHERE name = $1
		  AND description IS NOT DISTINCT FROM $2
		  AND genre = $3
		  AND grade = $4
		  AND min_price = $5
		  AND image_url = $6
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`, fp.Name, fp.Description, fp.Genre, fp.Grade, fp.MinPrice, fp.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate card: %w", err)
	}
	return &c, nil
}

func (t *createTx) Insert(ctx context.Context, c *PhotoCard) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO photo_cards (creator_user_id, name, description, genre, grade, min_price, total_supply, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, c.CreatorUserID, c.Name, c.Description, c.Genre, c.Grade, c.MinPrice, c.TotalSupply, c.ImageURL).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert photo card: %w", err)
	}
	return nil
}

func (t *createTx) AddUserCard(ctx context.Context, userID, photoCardID int64, quantity int) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO user_cards (user_id, photo_card_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT user_cards_owner_card_key
		DO UPDATE SET quantity = user_cards.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id
	`, userID, photoCardID, quantity)
	if err != nil {
		return 0, fmt.Errorf("add user card: %w", err)
	}
	return id, nil
}

func (t *createTx) TotalQuantity(ctx context.Context, photoCardID int64) (int, error) {
	var n int
	err := t.tx.GetContext(ctx, &n, `SELECT COALESCE(SUM(quantity), 0) FROM user_cards WHERE photo_card_id = $1`, photoCardID)
	if err != nil {
		return 0, fmt.Errorf("sum card quantity: %w", err)
	}
	return n, nil
}

func (t *createTx) SetTotalSupply(ctx context.Context, photoCardID int64, total int) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE photo_cards SET total_supply = $2, updated_at = now() WHERE id = $1`, photoCardID, total)
	if err != nil {
		return fmt.Errorf("set total supply: %w", err)
	}
	return nil
}
