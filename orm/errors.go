package orm

import "github.com/iov-one/htlc/errors"

// orm reserves codes 50~59

var (
	// ErrInvalidIndex is returned when an index specified is invalid
	ErrInvalidIndex = errors.Register(50, "invalid index")
	// ErrUniqueConstraint is returned when a unique index already holds
	// the value for another key
	ErrUniqueConstraint = errors.Register(51, "duplicate unique key")
)
