/*
Package errors implements custom error interfaces for the escrow host and
contract code.

The idea is to reuse as many errors from this package as possible and define
custom package errors only when the failure is specific to an extension. The
escrow contract in x/htlc registers its own kinds, everything else (storage,
codec, bank) uses the root errors declared here.

To declare a custom error use Register(code, description). Codes must be
unique for the whole process, a duplicate registration panics at startup.

Always create an error instance at the point of failure using
Wrap(ErrXyz, "...") or ErrXyz.New("..."). The first wrap attaches a stack
trace (github.com/pkg/errors), further wraps only add context.

Once you have an error, you can use fmt to get more context

	%s is just the error message
	%+v is the full stack trace
*/
package errors
