package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If none or only one error is provided, the result is the same as the
// input. Otherwise a collection is returned and Error.Is matches any of the
// collected errors.
func Append(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if errIsNil(err) {
			continue
		}
		if m, ok := err.(*multiErr); ok {
			flat = append(flat, m.errors...)
			continue
		}
		flat = append(flat, err)
	}

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &multiErr{errors: flat}
	}
}

// unpacker is implemented by errors that carry more than one failure.
type unpacker interface {
	Unpack() []error
}

// multiErr is the collection of errors returned by Append.
type multiErr struct {
	errors []error
}

var (
	_ coder    = (*multiErr)(nil)
	_ unpacker = (*multiErr)(nil)
)

func (m *multiErr) Unpack() []error {
	return m.errors
}

func (m *multiErr) Error() string {
	points := make([]string, len(m.errors))
	for i, err := range m.errors {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n",
		len(m.errors), strings.Join(points, "\n\t"))
}

// ABCICode returns the code of the first error, consistent with a fail-fast
// approach.
func (m *multiErr) ABCICode() uint32 {
	return abciCode(m.errors[0])
}
