package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound             = errors.New("listing not found")
	ErrUserCardNotFound     = errors.New("user card not found")
	ErrForbidden            = errors.New("not the seller")
	ErrInvalidInput         = errors.New("invalid listing input")
	ErrInsufficientQuantity = errors.New("not enough unlisted cards")
	ErrNotActive            = errors.New("listing is not active")
)

// ValidationError lists the rejected fields and the rule each one broke
type ValidationError struct {
	Fields map[string]string
}

func invalid(field, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid listing input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// QuantityError reports the units still free to list
type QuantityError struct {
	Requested int
	Available int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("requested %d cards but only %d are unlisted", e.Requested, e.Available)
}

func (e *QuantityError) Is(target error) bool { return target == ErrInsufficientQuantity }
