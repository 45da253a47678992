// Package store reads and replaces the submission wall held by a remote
// document store.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

// Backend is a remote store of the whole submission wall. Load never
// returns the sentinel record used to seed an empty document.
type Backend interface {
	Load(ctx context.Context) ([]models.Record, error)
	Save(ctx context.Context, records []models.Record) error
}

// RecordMutator is implemented by backends that can update a single record
// atomically instead of replacing the whole document.
type RecordMutator interface {
	// InsertIfAbsent stores rec unless a record with the same SubmissionID
	// exists, and reports whether it was inserted.
	InsertIfAbsent(ctx context.Context, rec models.Record) (bool, error)
	// IncrementLikes adds one like and returns the new count.
	IncrementLikes(ctx context.Context, submissionID string) (int, error)
}

// StatusError is a non-success response from the document store.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("document store responded with status %d: %s", e.Status, truncate(e.Body, 200))
}

func (e *StatusError) Unwrap() error { return models.ErrStoreUnavailable }

// Accessor is the read-modify-write wrapper every operation goes through.
type Accessor struct {
	backend Backend
}

func NewAccessor(backend Backend) *Accessor {
	return &Accessor{backend: backend}
}

// FetchAll returns the stored records. An unreachable or empty store
// yields an empty slice: nothing has been stored yet.
func (a *Accessor) FetchAll(ctx context.Context) []models.Record {
	records, err := a.backend.Load(ctx)
	if err != nil {
		slog.Warn("Document store read failed, treating as empty.", "error", err)
		return []models.Record{}
	}
	return records
}

// Load is the strict read used where an empty result would be unsafe.
func (a *Accessor) Load(ctx context.Context) ([]models.Record, error) {
	records, err := a.backend.Load(ctx)
	if err != nil {
		return nil, wrapUnavailable("read", err)
	}
	return records, nil
}

// ReplaceAll overwrites the whole store.
func (a *Accessor) ReplaceAll(ctx context.Context, records []models.Record) error {
	if err := a.backend.Save(ctx, records); err != nil {
		return wrapUnavailable("write", err)
	}
	return nil
}

// Mutator returns the backend's per-record operations when it has them.
func (a *Accessor) Mutator() (RecordMutator, bool) {
	m, ok := a.backend.(RecordMutator)
	return m, ok
}

// Backend exposes the underlying backend.
func (a *Accessor) Backend() Backend {
	return a.backend
}

func wrapUnavailable(op string, err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("document store %s: %w", op, err)
	}
	return fmt.Errorf("document store %s: %w: %v", op, models.ErrStoreUnavailable, err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
