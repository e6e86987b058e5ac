package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrShopNotFound      = errors.New("shop not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type ValidationReason string

const (
	ReasonUnsupportedType ValidationReason = "unsupported_type"
	ReasonTooLarge        ValidationReason = "too_large"
	ReasonEmptyFile       ValidationReason = "empty_file"
)

// ValidationError reports an uploaded file that failed type or size checks.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MissingReasonError reports a rejection or suspension submitted without a justification.
type MissingReasonError struct {
	Field string
}

func (e *MissingReasonError) Error() string {
	field := e.Field
	if field == "" {
		field = "reason"
	}
	return fmt.Sprintf("%s is required", field)
}

func (e *MissingReasonError) Is(target error) bool {
	return target == ErrInvalidInput
}

type InvalidCategoryError struct {
	Value string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("unknown business category %q", e.Value)
}

func (e *InvalidCategoryError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InvalidTransitionError is returned for a status change the state machine does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func requireReason(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &MissingReasonError{Field: field}
	}
	return nil
}
