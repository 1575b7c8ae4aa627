package errors

import (
	"strings"
)

// Append combines errors into a single error. Nil values are ignored and
// collections are flattened. It returns nil when no error was given.
func Append(errs ...error) error {
	var all multiErr
	for _, e := range errs {
		all = append(all, Unpack(e)...)
	}
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	return all
}

// Unpack returns the list of errors carried by given error. A nil error
// unpacks into an empty list and a single error into a one element list.
func Unpack(err error) []error {
	if isNilErr(err) {
		return nil
	}
	if u, ok := err.(unpacker); ok {
		return u.Unpack()
	}
	return []error{err}
}

type unpacker interface {
	Unpack() []error
}

type multiErr []error

func (m multiErr) Unpack() []error {
	return []error(m)
}

func (m multiErr) Error() string {
	msgs := make([]string, len(m))
	for i, e := range m {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
