package errors

import (
	"strings"
)

// Field returns an error instance that wraps the original error with
// additional information. It carries the name of the field that was invalid.
// Use it to report a validation failure of a particular message attribute.
//
// If err is nil, this returns nil.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &fieldError{
		Parent: Wrapf(err, description, args...),
		Field:  fieldName,
	}
}

type fieldError struct {
	Parent error
	Field  string
}

func (e *fieldError) Error() string {
	return e.Field + ": " + e.Parent.Error()
}

func (e *fieldError) Cause() error {
	return e.Parent
}

// FieldPath returns the name of the field this error is reported for.
func (e *fieldError) FieldPath() string {
	return e.Field
}

// AppendField is a shortcut for Append(Field(...)).
func AppendField(err error, fieldName string, fieldErr error) error {
	if fieldErr == nil {
		return err
	}
	return Append(err, Field(fieldName, fieldErr, "invalid"))
}

// FieldErrors returns all errors created for a field with given name. A field
// name is matched as a prefix so "transfers" also returns errors reported
// for "transfers.0.amount".
func FieldErrors(err error, fieldName string) []error {
	if err == nil {
		return nil
	}
	var res []error
	for _, e := range Unpack(err) {
		fe, ok := e.(*fieldError)
		if !ok {
			continue
		}
		if fe.Field == fieldName || strings.HasPrefix(fe.Field, fieldName+".") {
			res = append(res, fe)
		}
	}
	return res
}
