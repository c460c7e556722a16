package service

import (
	"errors"

	"lms_backend/internal/util"

	"gorm.io/gorm"
)

// patch collects the columns of a partial update. Only keys present in the
// payload are written; an explicit null clears a nullable column.
type patch struct {
	payload util.Payload
	fields  map[string]interface{}
	err     error
}

func newPatch(p util.Payload) *patch {
	return &patch{payload: p, fields: map[string]interface{}{}}
}

func (p *patch) present(key string) bool {
	return p.err == nil && p.payload.Has(key)
}

func setRequired[T any](p *patch, key, column string, v *T) {
	if !p.present(key) {
		return
	}
	if v == nil {
		p.err = util.NewValidationError("%s must not be null", key)
		return
	}
	p.fields[column] = *v
}

func setNullable[T any](p *patch, key, column string, v *T) {
	if !p.present(key) {
		return
	}
	if v == nil {
		p.fields[column] = nil
		return
	}
	p.fields[column] = *v
}

// notFound gives a missing record a message naming what was looked up.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.NewNotFoundError(format, args...)
	}
	return storeFailure(err)
}

// storeFailure marks an unclassified error from the store as transient.
// Constraint, not found and already classified errors pass through.
func storeFailure(err error) error {
	if err == nil || util.KindOf(err) != util.KindInternal {
		return err
	}
	return util.WrapTransient(err)
}

// duplicate turns a unique violation into a conflict with a readable message.
func duplicate(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || util.KindOf(err) == util.KindConflict {
		return util.NewConflictError(format, args...)
	}
	return storeFailure(err)
}
