package point

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/photocard/photocard-api/internal/pkg/database"
)

const (
	queryTimeout = 3 * time.Second
	txTimeout    = 5 * time.Second
)

// Repository reads the ledger and runs draw transactions.
type Repository interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	// ListHistory and ListBoxDraws return at most fetch rows with id < cursor, newest first.
	ListHistory(ctx context.Context, userID int64, cursor *int64, fetch int) ([]HistoryEntry, error)
	ListBoxDraws(ctx context.Context, userID int64, cursor *int64, fetch int) ([]BoxDraw, error)
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerTx is the set of statements a draw issues inside one transaction.
type LedgerTx interface {
	// LockBalance takes the row lock on the user's balance.
	LockBalance(ctx context.Context, userID int64) (int64, error)
	// CooldownRemaining is computed with the store's clock; 0 means no active cooldown.
	CooldownRemaining(ctx context.Context, userID int64, cooldown time.Duration) (int64, error)
	NextBoxDrawID(ctx context.Context) (int64, error)
	InsertHistory(ctx context.Context, entry HistoryEntry) (int64, error)
	AddPoints(ctx context.Context, userID, amount int64) error
	InsertBoxDraw(ctx context.Context, draw BoxDraw) error
}

// PostgresRepository implements Repository on sqlx.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var points int64
	err := r.db.GetContext(ctx2, &points, `SELECT points FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}
	return points, nil
}

func (r *PostgresRepository) ListHistory(ctx context.Context, userID int64, cursor *int64, fetch int) ([]HistoryEntry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entries := make([]HistoryEntry, 0, fetch)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT id, user_id, amount, type, ref_entity_type, ref_entity_id, created_at
		FROM point_history
		WHERE user_id = $1 AND ($2::bigint IS NULL OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`, userID, cursor, fetch)
	if err != nil {
		return nil, fmt.Errorf("%w: list history", ErrInternal)
	}
	return entries, nil
}

func (r *PostgresRepository) ListBoxDraws(ctx context.Context, userID int64, cursor *int64, fetch int) ([]BoxDraw, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	draws := make([]BoxDraw, 0, fetch)
	err := r.db.SelectContext(ctx2, &draws, `
		SELECT id, user_id, point_history_id, earned_points, created_at
		FROM point_box_draws
		WHERE user_id = $1 AND ($2::bigint IS NULL OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`, userID, cursor, fetch)
	if err != nil {
		return nil, fmt.Errorf("%w: list box draws", ErrInternal)
	}
	return draws, nil
}

func (r *PostgresRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error {
	ctx2, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	var fnErr error
	err := database.WithTx(ctx2, r.db, func(tx *sqlx.Tx) error {
		fnErr = fn(ctx2, &ledgerTx{tx: tx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	return err
}

type ledgerTx struct {
	tx *sqlx.Tx
}

func (t *ledgerTx) LockBalance(ctx context.Context, userID int64) (int64, error) {
	var points int64
	err := t.tx.GetContext(ctx, &points, `SELECT points FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("%w: lock user row", ErrInternal)
	}
	return points, nil
}

func (t *ledgerTx) CooldownRemaining(ctx context.Context, userID int64, cooldown time.Duration) (int64, error) {
	var remaining int64
	err := t.tx.GetContext(ctx, &remaining, `
		SELECT GREATEST(0, CEIL(EXTRACT(EPOCH FROM
			(created_at + $2::float8 * interval '1 second') - clock_timestamp()
		)))::bigint
		FROM point_box_draws
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, userID, cooldown.Seconds())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read last draw", ErrInternal)
	}
	return remaining, nil
}

func (t *ledgerTx) NextBoxDrawID(ctx context.Context) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `SELECT nextval(pg_get_serial_sequence('point_box_draws', 'id'))`)
	if err != nil {
		return 0, fmt.Errorf("%w: reserve draw id", ErrInternal)
	}
	return id, nil
}

func (t *ledgerTx) InsertHistory(ctx context.Context, entry HistoryEntry) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO point_history (user_id, amount, type, ref_entity_type, ref_entity_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, entry.UserID, entry.Amount, string(entry.Type), entry.RefEntityType, entry.RefEntityID)
	if err != nil {
		return 0, fmt.Errorf("%w: insert history", ErrInternal)
	}
	return id, nil
}

func (t *ledgerTx) AddPoints(ctx context.Context, userID, amount int64) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE users
		SET points = points + $2, updated_at = now()
		WHERE id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("%w: update user balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (t *ledgerTx) InsertBoxDraw(ctx context.Context, draw BoxDraw) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO point_box_draws (id, user_id, point_history_id, earned_points, created_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
	`, draw.ID, draw.UserID, draw.PointHistoryID, draw.EarnedPoints)
	if err != nil {
		return fmt.Errorf("%w: insert box draw", ErrInternal)
	}
	return nil
}
