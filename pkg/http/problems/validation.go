package problems

import (
	"errors"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
)

// Validation converts ozzo validation errors into a 400 problem with one entry per field.
func Validation(detail string, err error) *Problem {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return BadRequest(detail, FieldError{Message: err.Error()})
	}

	fields := lo.Keys(verrs)
	slices.Sort(fields)
	return BadRequest(detail, lo.Map(fields, func(f string, _ int) FieldError {
		return FieldError{Field: f, Message: verrs[f].Error()}
	})...)
}
