package auth

import "errors"

var (
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrNicknameAlreadyExists = errors.New("nickname already taken")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrPasswordNotSet        = errors.New("account has no password")
	ErrInvalidRefreshToken   = errors.New("invalid or expired refresh token")
	ErrUserNotFound          = errors.New("user not found")
	ErrRefreshTokenRequired  = errors.New("refresh token is required")
)
