package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTemplateNotFound = errors.New("reward template not found")
	ErrRewardNotUsable  = errors.New("reward cannot be used")
	ErrConflict         = errors.New("concurrent update conflict")
	ErrMissingIdentity  = errors.New("template missing identity fields")
)

// FieldError is one human-readable validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full ordered list of field errors; a template
// write failing validation is rejected whole.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid reward config: " + strings.Join(msgs, "; ")
}

// TransientError marks a failed external call (timeout, 5xx, rate limit) that
// is safe to retry on the next tick or manual re-sync.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
