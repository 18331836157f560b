package user

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetMe returns the caller's profile
func (s *Service) GetMe(ctx context.Context, userID int64) (*User, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateMe changes email and/or nickname. Values already used by another
// account are rejected; resubmitting one's own value is a no-op for that field.
func (s *Service) UpdateMe(ctx context.Context, userID int64, req UpdateMeRequest) (*User, error) {
	if req.Email == nil && req.Nickname == nil {
		return nil, ErrNothingToUpdate
	}

	current, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	var email, nickname *string
	if req.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Email))
		if v != current.Email {
			other, err := s.repo.GetByEmail(ctx, v)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != userID {
				return nil, ErrEmailTaken
			}
			email = &v
		}
	}
	if req.Nickname != nil {
		v := strings.TrimSpace(*req.Nickname)
		if v != current.Nickname {
			other, err := s.repo.GetByNickname(ctx, v)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != userID {
				return nil, ErrNicknameTaken
			}
			nickname = &v
		}
	}

	if email == nil && nickname == nil {
		return current, nil
	}

	if err := s.repo.UpdateProfile(ctx, userID, email, nickname); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", userID).Bool("email_changed", email != nil).Bool("nickname_changed", nickname != nil).Msg("user profile updated")
	return s.GetMe(ctx, userID)
}
