// Package service implements package and customer operations on top of a
// store, keeping derived subscription fields consistent.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MacJediWizard/subdash/internal/activity"
	"github.com/MacJediWizard/subdash/internal/store"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that an entity referenced by the request does not
// exist. It matches store.ErrNotFound.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, store.ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}

// Publisher receives committed changes.
type Publisher interface {
	Publish(ctx context.Context, change activity.Change)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, activity.Change) {}

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
