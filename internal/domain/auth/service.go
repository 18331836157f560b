package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/photocard/photocard-api/internal/domain/user"
	"github.com/photocard/photocard-api/internal/pkg/jwt"
	"github.com/photocard/photocard-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	userRepo    user.Repository
	jwtService  *jwt.Service
	refreshRepo RefreshTokenStore
	now         func() time.Time
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, refreshRepo RefreshTokenStore) *Service {
	return &Service{
		userRepo:    userRepo,
		jwtService:  jwtService,
		refreshRepo: refreshRepo,
		now:         time.Now,
	}
}

// Signup creates a password account
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	email := normalizeEmail(req.Email)
	nickname := strings.TrimSpace(req.Nickname)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}
	existing, err = s.userRepo.GetByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNicknameAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: sql.NullString{String: hash, Valid: true},
	}
	// the unique constraints still decide concurrent signups
	if err := s.userRepo.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			return nil, ErrEmailAlreadyExists
		case errors.Is(err, user.ErrNicknameTaken):
			return nil, ErrNicknameAlreadyExists
		}
		return nil, err
	}

	log.Info().Int64("user_id", u.ID).Msg("user signed up")
	return &SignupResponse{UserID: u.ID, Email: u.Email, Nickname: u.Nickname}, nil
}

// Login authenticates user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.HasPassword() {
		return nil, ErrPasswordNotSet
	}
	if !password.Verify(req.Password, u.PasswordHash.String) {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(ctx, u)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: newUserResponse(u), Tokens: *tokens}, nil
}

// Refresh issues a new access token. The refresh token has to verify as a JWT
// and be stored, unrevoked and unexpired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokensResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	rec, err := s.refreshRepo.GetByTokenHash(ctx, jwt.HashRefreshToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != claims.UserID || !rec.Active(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &TokensResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtService.GetAccessTTL().Seconds()),
		TokenType:   "Bearer",
	}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshRepo.RevokeByTokenHash(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	resp := newUserResponse(u)
	return &resp, nil
}

func (s *Service) generateTokens(ctx context.Context, u *user.User) (*TokensResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	// only the hash is stored
	rec := &RefreshTokenRecord{
		UserID:    u.ID,
		TokenHash: jwt.HashRefreshToken(refreshToken),
		ExpiresAt: expiresAt,
	}
	if err := s.refreshRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	return &TokensResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Nickname: u.Nickname, Points: u.Points}
}
