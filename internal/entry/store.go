package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator"
	"github.com/jo-hoe/photolog/internal/category"
)

// Backend keeps the entries of a single session in insertion order
type Backend interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Discard(ctx context.Context) error
	// Touch marks the session as active. Stores with their own expiry extend retention.
	Touch(ctx context.Context) error
}

// Store is the append-only entry log of a session.
// Entries are validated before they reach the backend; there is no update or delete.
type Store struct {
	backend  Backend
	resolver *category.Resolver
	validate *validator.Validate
}

func NewStore(backend Backend, resolver *category.Resolver) *Store {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		return field.Name
	})
	return &Store{
		backend:  backend,
		resolver: resolver,
		validate: v,
	}
}

// Validate checks the four-field invariant and the category2-in-category1 constraint
func (s *Store) Validate(e Entry) error {
	e = e.normalized()

	if err := s.validate.Struct(e); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate entry: %w", err)
		}
		missing := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			missing = append(missing, fe.Field())
		}
		return &ValidationError{Fields: missing}
	}

	if !s.resolver.Known(e.Category1) {
		return &ValidationError{Fields: []string{"category1"}, Reason: "unknown category"}
	}
	if !s.resolver.Allows(e.Category1, e.Category2) {
		return &ValidationError{
			Fields: []string{"category2"},
			Reason: fmt.Sprintf("not a subcategory of %s", e.Category1),
		}
	}
	return nil
}

// Append validates e and adds it to the end of the log.
// A rejected entry leaves the log untouched.
func (s *Store) Append(ctx context.Context, e Entry) error {
	e = e.normalized()
	if err := s.Validate(e); err != nil {
		slog.Debug("entry rejected", "error", err)
		return err
	}
	if err := s.backend.Append(ctx, e); err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	slog.Debug("entry appended",
		"category1", e.Category1,
		"category2", e.Category2,
		"image_size_bytes", len(e.Image))
	return nil
}

// ListAll returns every entry in insertion order
func (s *Store) ListAll(ctx context.Context) ([]Entry, error) {
	entries, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (s *Store) Len(ctx context.Context) (int, error) {
	entries, err := s.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Touch keeps the backing log alive while the session is in use
func (s *Store) Touch(ctx context.Context) error {
	if err := s.backend.Touch(ctx); err != nil {
		return fmt.Errorf("failed to refresh entry log: %w", err)
	}
	return nil
}

// Discard drops the whole session log; used only when the session ends
func (s *Store) Discard(ctx context.Context) error {
	return s.backend.Discard(ctx)
}
