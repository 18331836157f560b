package point_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photocard/photocard-api/internal/domain/point"
	"github.com/photocard/photocard-api/internal/pkg/database/testutil"
)

type constRandom int

func (c constRandom) IntRange(int, int) (int, error) { return int(c), nil }

func ledgerSum(t *testing.T, db *sqlx.DB, userID int64) (balance, historySum int64, draws int) {
	t.Helper()
	require.NoError(t, db.Get(&balance, `SELECT points FROM users WHERE id = $1`, userID))
	require.NoError(t, db.Get(&historySum, `SELECT COALESCE(SUM(amount), 0) FROM point_history WHERE user_id = $1`, userID))
	require.NoError(t, db.Get(&draws, `SELECT COUNT(*) FROM point_box_draws WHERE user_id = $1`, userID))
	return balance, historySum, draws
}

func TestPostgresDrawAndCooldown(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	userID := testutil.CreateUser(t, db, 0)
	svc := point.NewService(point.NewRepository(db), constRandom(6), nil, time.Hour)
	ctx := context.Background()

	result, err := svc.Draw(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 6, result.EarnedPoints)

	var refID int64
	require.NoError(t, db.Get(&refID, `SELECT ref_entity_id FROM point_history WHERE id = $1`, result.PointHistoryID))
	assert.Equal(t, result.PointBoxDrawID, refID)

	_, err = svc.Draw(ctx, userID)
	var cooldown *point.CooldownError
	require.True(t, errors.As(err, &cooldown))
	assert.Greater(t, cooldown.RemainingTotalSeconds, int64(3590))
	assert.LessOrEqual(t, cooldown.RemainingTotalSeconds, int64(3600))

	balance, sum, draws := ledgerSum(t, db, userID)
	assert.Equal(t, int64(6), balance)
	assert.Equal(t, balance, sum)
	assert.Equal(t, 1, draws)

	// move the last draw out of the window using the server clock
	_, err = db.Exec(`UPDATE point_box_draws SET created_at = now() - interval '1 hour' WHERE user_id = $1`, userID)
	require.NoError(t, err)

	_, err = svc.Draw(ctx, userID)
	require.NoError(t, err)

	balance, sum, draws = ledgerSum(t, db, userID)
	assert.Equal(t, int64(12), balance)
	assert.Equal(t, balance, sum)
	assert.Equal(t, 2, draws)
}

func TestPostgresConcurrentDraws(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	userID := testutil.CreateUser(t, db, 0)
	svc := point.NewService(point.NewRepository(db), constRandom(4), nil, time.Hour)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Draw(context.Background(), userID)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			if !errors.Is(err, point.ErrCooldown) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	balance, sum, draws := ledgerSum(t, db, userID)
	assert.Equal(t, int64(4), balance)
	assert.Equal(t, balance, sum)
	assert.Equal(t, 1, draws)
}

// failingRepository injects a failure into the draw insert of a real transaction.
type failingRepository struct {
	*point.PostgresRepository
}

func (r failingRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx point.LedgerTx) error) error {
	return r.PostgresRepository.RunInTx(ctx, func(ctx context.Context, tx point.LedgerTx) error {
		return fn(ctx, failingTx{LedgerTx: tx})
	})
}

type failingTx struct {
	point.LedgerTx
}

func (failingTx) InsertBoxDraw(context.Context, point.BoxDraw) error {
	return errors.New("forced failure")
}

func TestPostgresDrawRollsBack(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	userID := testutil.CreateUser(t, db, 0)
	svc := point.NewService(failingRepository{point.NewRepository(db)}, constRandom(9), nil, time.Hour)

	_, err := svc.Draw(context.Background(), userID)
	require.Error(t, err)

	balance, sum, draws := ledgerSum(t, db, userID)
	assert.Zero(t, balance)
	assert.Zero(t, sum)
	assert.Zero(t, draws)
}

func TestPostgresReads(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	userID := testutil.CreateUser(t, db, 0)
	repo := point.NewRepository(db)
	svc := point.NewService(repo, constRandom(2), nil, time.Hour)
	ctx := context.Background()

	_, err := svc.GetBalance(ctx, 999999)
	assert.ErrorIs(t, err, point.ErrUserNotFound)

	for i := 0; i < 3; i++ {
		_, err := svc.Draw(ctx, userID)
		require.NoError(t, err)
		_, err = db.Exec(`UPDATE point_box_draws SET created_at = created_at - interval '2 hours' WHERE user_id = $1`, userID)
		require.NoError(t, err)
	}

	page, err := svc.GetHistory(ctx, userID, point.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Greater(t, page.Items[0].ID, page.Items[1].ID)

	rest, err := svc.GetHistory(ctx, userID, point.PageRequest{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.False(t, rest.HasMore)
	assert.Less(t, rest.Items[0].ID, page.Items[1].ID)

	draws, err := svc.ListBoxDraws(ctx, userID, point.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, draws.Items, 3)
	assert.False(t, draws.HasMore)

	balance, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), balance)
}
