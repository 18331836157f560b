package user

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrNicknameTaken   = errors.New("nickname already in use")
	ErrNothingToUpdate = errors.New("no fields to update")
	ErrInvalidInput    = errors.New("invalid input")
)
