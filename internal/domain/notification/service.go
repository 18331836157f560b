package notification

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	unreadCacheTTL = 30 * time.Second
)

// Service handles notification logic
type Service struct {
	repo  Repository
	redis *redis.Client // nil if Redis disabled
}

// NewService creates notification service
func NewService(repo Repository, redis *redis.Client) *Service {
	return &Service{repo: repo, redis: redis}
}

// Create stores a notification for userID
func (s *Service) Create(ctx context.Context, userID int64, notifType Type, entityType string, entityID int64, message string) (*Notification, error) {
	if userID <= 0 || message == "" {
		return nil, ErrInvalidInput
	}
	n := &Notification{
		UserID:  userID,
		Type:    notifType,
		Message: message,
	}
	if entityType != "" {
		n.EntityType = sql.NullString{String: entityType, Valid: true}
		n.EntityID = sql.NullInt64{Int64: entityID, Valid: true}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.invalidateUnread(ctx, userID)
	return n, nil
}

// NotifyPointDraw tells the user a box draw result is available
func (s *Service) NotifyPointDraw(ctx context.Context, userID, pointHistoryID int64, earnedPoints int) error {
	n, err := s.Create(ctx, userID, TypePoint, EntityPointHistory, pointHistoryID, MessagePointDraw)
	if err != nil {
		return err
	}
	log.Debug().
		Int64("user_id", userID).
		Int64("notification_id", n.ID).
		Int("earned_points", earnedPoints).
		Msg("point draw notification created")
	return nil
}

// List returns the newest notifications with the unread total.
// limit 0 means DefaultListLimit; larger values are capped at MaxListLimit.
func (s *Service) List(ctx context.Context, userID int64, limit int) (*ListResponse, error) {
	if userID <= 0 || limit < 0 {
		return nil, ErrInvalidInput
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, len(rows))
	for i, n := range rows {
		items[i] = newListItem(n)
	}
	return &ListResponse{Items: items, UnreadCount: unread}, nil
}

// Detail opens one notification and advances its read progress
func (s *Service) Detail(ctx context.Context, userID, id int64) (*DetailResponse, error) {
	if userID <= 0 || id <= 0 {
		return nil, ErrInvalidInput
	}
	n, err := s.repo.TouchReadProgress(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	if n.IsRead {
		s.invalidateUnread(ctx, userID)
	}
	return newDetailResponse(n), nil
}

// UnreadCount is served from Redis for a short while when Redis is configured
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	if s.redis != nil {
		val, err := s.redis.Get(ctx, unreadKey(userID)).Int()
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Int64("user_id", userID).Msg("unread count cache read failed")
		}
	}

	count, err := s.repo.CountUnreadByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, unreadKey(userID), count, unreadCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("unread count cache write failed")
		}
	}
	return count, nil
}

func (s *Service) invalidateUnread(ctx context.Context, userID int64) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, unreadKey(userID)).Err(); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("unread count cache invalidation failed")
	}
}

func unreadKey(userID int64) string {
	return "notifications:unread:" + strconv.FormatInt(userID, 10)
}
