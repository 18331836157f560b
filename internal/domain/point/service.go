package point

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCooldown separates two successful draws of one user.
const DefaultCooldown = time.Hour

// Notifier is told about committed draws.
type Notifier interface {
	NotifyPointDraw(ctx context.Context, userID, pointHistoryID int64, earnedPoints int) error
}

type Service struct {
	repo     Repository
	rng      RandomSource
	notifier Notifier
	cooldown time.Duration
}

// NewService wires the ledger. A nil rng uses crypto/rand, a nil notifier
// disables draw notifications and a non-positive cooldown means DefaultCooldown.
func NewService(repo Repository, rng RandomSource, notifier Notifier, cooldown time.Duration) *Service {
	if rng == nil {
		rng = CryptoRandom{}
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Service{repo: repo, rng: rng, notifier: notifier, cooldown: cooldown}
}

func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrInvalidInput
	}
	return s.repo.GetBalance(ctx, userID)
}

func (s *Service) GetHistory(ctx context.Context, userID int64, req PageRequest) (*Page[HistoryEntry], error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	limit, err := req.normalize()
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListHistory(ctx, userID, req.Cursor, limit+1)
	if err != nil {
		return nil, err
	}
	return buildPage(rows, limit, func(e HistoryEntry) int64 { return e.ID }), nil
}

func (s *Service) ListBoxDraws(ctx context.Context, userID int64, req PageRequest) (*Page[BoxDraw], error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	limit, err := req.normalize()
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListBoxDraws(ctx, userID, req.Cursor, limit+1)
	if err != nil {
		return nil, err
	}
	return buildPage(rows, limit, func(d BoxDraw) int64 { return d.ID }), nil
}

// Draw awards MinEarn..MaxEarn points at most once per cooldown window.
// The balance, the history row and the draw row commit together or not at all.
func (s *Service) Draw(ctx context.Context, userID int64) (*DrawResult, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	var result DrawResult
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx LedgerTx) error {
		if _, err := tx.LockBalance(ctx, userID); err != nil {
			return err
		}

		remaining, err := tx.CooldownRemaining(ctx, userID, s.cooldown)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return &CooldownError{RemainingTotalSeconds: remaining}
		}

		earned, err := s.rng.IntRange(MinEarn, MaxEarn)
		if err != nil {
			return ErrInternal
		}

		drawID, err := tx.NextBoxDrawID(ctx)
		if err != nil {
			return err
		}

		refType := RefEntityBoxDraw
		historyID, err := tx.InsertHistory(ctx, HistoryEntry{
			UserID:        userID,
			Amount:        int64(earned),
			Type:          HistoryTypeBoxDrawEarn,
			RefEntityType: &refType,
			RefEntityID:   &drawID,
		})
		if err != nil {
			return err
		}

		if err := tx.AddPoints(ctx, userID, int64(earned)); err != nil {
			return err
		}

		if err := tx.InsertBoxDraw(ctx, BoxDraw{
			ID:             drawID,
			UserID:         userID,
			PointHistoryID: historyID,
			EarnedPoints:   earned,
		}); err != nil {
			return err
		}

		result = DrawResult{
			EarnedPoints:   earned,
			PointBoxDrawID: drawID,
			PointHistoryID: historyID,
		}
		return nil
	})
	if err != nil {
		var cd *CooldownError
		if errors.As(err, &cd) {
			log.Info().Int64("user_id", userID).Int64("remaining_seconds", cd.RemainingTotalSeconds).Msg("box draw rejected by cooldown")
		}
		return nil, err
	}

	log.Info().Int64("user_id", userID).Int("earned_points", result.EarnedPoints).Int64("point_box_draw_id", result.PointBoxDrawID).Msg("box draw awarded")

	if s.notifier != nil {
		if err := s.notifier.NotifyPointDraw(ctx, userID, result.PointHistoryID, result.EarnedPoints); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("failed to create draw notification")
		}
	}

	return &result, nil
}
