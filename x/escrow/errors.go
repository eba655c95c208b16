package escrow

import (
	"github.com/iov-one/htlc/errors"
)

// escrow takes 100~119
var (
	ErrInvalidCommitment       = errors.Register(100, "secret hash must be 64 characters")
	ErrAddressResolutionFailed = errors.Register(101, "address cannot be resolved")
	ErrInvalidPreimageLength   = errors.Register(102, "preimage must be 64 characters")
	ErrInvalidPreimageEncoding = errors.Register(103, "preimage is not hex encoded")
	ErrSecretMismatch          = errors.Register(104, "preimage does not match secret hash")
	ErrNotYetExpired           = errors.Register(105, "escrow is not expired")
	ErrNothingToClaim          = errors.Register(106, "nothing to claim")
	ErrNothingToRefund         = errors.Register(107, "nothing to refund")
	ErrUnsupportedQuery        = errors.Register(108, "query not supported")

	// ErrUninitialized is returned when Claim or Refund run on an instance
	// without state. It is a host or deployment error, never a business
	// rule failure.
	ErrUninitialized = errors.Register(110, "escrow not initialized")
)

// IsFatal returns true for errors that signal a broken instance rather than
// a rejected call.
func IsFatal(err error) bool {
	return ErrUninitialized.Is(err)
}
