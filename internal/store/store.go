package store

import (
	"context"
	"errors"
	"fmt"
)

// Collection names used by the booking core.
const (
	CollectionDentists     = "dentists"
	CollectionPatients     = "patients"
	CollectionAvailability = "dentist_availability"
	CollectionAppointments = "appointments"
)

var ErrNotFound = errors.New("document not found")

// Filter matches documents by exact field equality.
type Filter map[string]any

// Fields is a partial document applied as an update.
type Fields map[string]any

// Error wraps a failure from the underlying document store so callers can
// distinguish persistence outages from business-rule rejections.
type Error struct {
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store is the generic document-store surface the booking core depends on.
// UpdateFieldsWhere is the conditional-write primitive: it applies fields to
// the document only if cond still matches, reporting whether it did. It is
// the serialization point that keeps two bookers from taking the same slot.
type Store interface {
	// ListWhere decodes all documents matching filter into out, which must
	// be a pointer to a slice.
	ListWhere(ctx context.Context, collection string, filter Filter, out any) error

	// GetByID decodes a single document into out. Returns ErrNotFound when
	// the id does not exist.
	GetByID(ctx context.Context, collection, id string, out any) error

	// Insert stores record under a freshly assigned id and returns it.
	Insert(ctx context.Context, collection string, record any) (string, error)

	// UpdateFields applies a partial update. Returns ErrNotFound when the id
	// does not exist.
	UpdateFields(ctx context.Context, collection, id string, fields Fields) error

	// UpdateFieldsWhere applies fields only if the document with id also
	// matches cond. The boolean reports whether the condition held.
	UpdateFieldsWhere(ctx context.Context, collection, id string, cond Filter, fields Fields) (bool, error)
}
