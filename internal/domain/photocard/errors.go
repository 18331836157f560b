package photocard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("photo card not found")
	ErrForbidden       = errors.New("not the card owner")
	ErrInvalidInput    = errors.New("invalid photo card input")
	ErrMonthlyLimit    = errors.New("monthly photo card limit reached")
	ErrImageNotFound   = errors.New("uploaded image not found")
	ErrStorageDisabled = errors.New("image uploads are not configured")
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
	return "invalid photo card input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// MonthlyLimitError reports how many cards the creator made this month
type MonthlyLimitError struct {
	Limit int
	Used  int
}

func (e *MonthlyLimitError) Error() string {
	return fmt.Sprintf("monthly photo card limit reached (%d/%d)", e.Used, e.Limit)
}

func (e *MonthlyLimitError) Is(target error) bool { return target == ErrMonthlyLimit }
