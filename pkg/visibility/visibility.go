package visibility

import (
	pkgerrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
)

// Lifecycle is the shared soft-delete state every queryable entity exposes.
type Lifecycle int

const (
	LifecycleActive Lifecycle = iota
	LifecycleDeleted
)

// Record is implemented by persisted entities that participate in the
// queryable-by-default visibility rules.
type Record interface {
	Lifecycle() Lifecycle
}

// EnsureQueryable returns a typed error when the record must not surface in
// reads: a missing record maps to NotFound, a tombstoned one to Deleted so
// callers can tell never-existed apart from removed.
func EnsureQueryable(record Record) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}
	if record.Lifecycle() == LifecycleDeleted {
		return pkgerrors.New(pkgerrors.CodeDeleted, "resource deleted")
	}
	return nil
}
