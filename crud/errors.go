package crud

import (
	"fmt"

	"github.com/raywall/fast-crud-toolkit/mapper"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
)

// ValidationError is returned by create and update for invalid input.
type ValidationError = mapper.ValidationError

// ModelNotFoundError reports a model reference the registry cannot resolve.
// It is fatal when building routes.
type ModelNotFoundError struct {
	Ref schema.Ref
	Err error
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("crud: model %s not found", e.Ref)
}

func (e *ModelNotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return schema.ErrModelNotFound
}

// NotFoundError reports that no record exists for a key.
type NotFoundError struct {
	Ref schema.Ref
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("crud: %s with key %q not found", e.Ref, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}
