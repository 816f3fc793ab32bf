// Package validation holds the write-path rules shared by catalog and collections
// entities. Rules are pure functions of the values they receive; a nil error means
// the write may proceed.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Percent is one optional percentage field taking part in a sum rule.
type Percent struct {
	Name  string
	Value *int
}

// PercentagesSumTo100 requires the values to add up to 100 when every one of them is
// present. A missing value disables the rule.
func PercentagesSumTo100(fields ...Percent) error {
	total := 0
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Value == nil {
			return nil
		}
		total += *f.Value
		names = append(names, f.Name)
	}
	if len(fields) == 0 || total == 100 {
		return nil
	}
	return &RangeError{Fields: names, Msg: "sum of percentages must equal 100%"}
}

// Field is one of two mutually exclusive optional fields.
type Field struct {
	Name string
	Set  bool
}

// ExactlyOne passes only when exactly one of the two fields is populated.
func ExactlyOne(first, second Field) error {
	if first.Set == second.Set {
		return &OwnershipError{First: first.Name, Second: second.Name, Both: first.Set}
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct checks `validate` tags on v and reports violations as a *RangeError keyed by
// JSON field name.
func Struct(v any) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		msgs = append(msgs, describe(fe))
	}
	return &RangeError{Fields: fields, Msg: strings.Join(msgs, "; ")}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte", "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "lte", "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "email":
		return fe.Field() + " must be a valid email"
	}
	return fe.Field() + " failed " + fe.Tag()
}
