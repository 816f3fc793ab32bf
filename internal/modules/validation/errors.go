package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ConsistencyError reports a typed attribute record that disagrees with its product type.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string { return e.Msg }

// UniquenessError reports a duplicate natural key.
type UniquenessError struct {
	Entity string
	Fields []string
}

func (e *UniquenessError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s already exists", e.Entity)
	}
	return fmt.Sprintf("%s with this %s already exists", e.Entity, strings.Join(e.Fields, ", "))
}

// OwnershipError reports zero or two of two mutually exclusive owner fields set.
type OwnershipError struct {
	First, Second string
	Both          bool
}

func (e *OwnershipError) Error() string {
	if e.Both {
		return fmt.Sprintf("only one of %s or %s can be used", e.First, e.Second)
	}
	return fmt.Sprintf("one of %s or %s must be set", e.First, e.Second)
}

// RangeError reports field values outside their allowed range.
type RangeError struct {
	Fields []string
	Msg    string
}

func (e *RangeError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Fields, ", "), e.Msg)
}

// ProtectedError reports a delete blocked by rows that still reference the entity.
type ProtectedError struct {
	Entity string
}

func (e *ProtectedError) Error() string {
	return fmt.Sprintf("%s is referenced by other records and cannot be deleted", e.Entity)
}

// Fields returns the names of the fields a validation error points at, if any.
func Fields(err error) []string {
	var (
		re *RangeError
		ue *UniquenessError
		oe *OwnershipError
	)
	switch {
	case errors.As(err, &re):
		return re.Fields
	case errors.As(err, &ue):
		return ue.Fields
	case errors.As(err, &oe):
		return []string{oe.First, oe.Second}
	}
	return nil
}
