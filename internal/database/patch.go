package database

import (
	"fmt"
	"strings"

	"github.com/tabhome/tabhome/internal/optional"
)

// setRequired overwrites dst when v holds a value. Null is rejected because
// the column cannot be cleared.
func setRequired[T any](dst *T, v optional.Value[T], field string) error {
	if !v.IsSet() {
		return nil
	}
	val, ok := v.Get()
	if !ok {
		return fmt.Errorf("%w: %s cannot be null", ErrInvalidPatch, field)
	}
	*dst = val
	return nil
}

// setNullable overwrites dst when v is present; null clears the column.
func setNullable[T any](dst **T, v optional.Value[T]) {
	if v.IsSet() {
		*dst = v.Ptr()
	}
}

// setNullableText is setNullable for free text, where an empty string is stored as NULL.
func setNullableText(dst **string, v optional.Value[string]) {
	if !v.IsSet() {
		return
	}
	if s, ok := v.Get(); ok && s != "" {
		*dst = &s
		return
	}
	*dst = nil
}

func requireText(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidPatch, field)
	}
	return nil
}
