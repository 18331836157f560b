package point

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when the account does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidInput is returned for malformed ids, limits or cursors
	ErrInvalidInput = errors.New("invalid input")

	// ErrCooldown matches every *CooldownError
	ErrCooldown = errors.New("draw cooldown active")

	ErrInternal = errors.New("internal error")
)

// CooldownError rejects a draw attempted inside the cooldown window.
type CooldownError struct {
	RemainingTotalSeconds int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("draw cooldown active: %d seconds remaining", e.RemainingTotalSeconds)
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// Message renders the remaining time as "next draw in 12m 5s".
func (e *CooldownError) Message() string {
	return fmt.Sprintf("next draw in %dm %ds", e.RemainingTotalSeconds/60, e.RemainingTotalSeconds%60)
}
