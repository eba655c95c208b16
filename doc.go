/*
Package htlc defines the common interfaces that weave together the escrow
contract (x/htlc), the bank (x/cash) and the host runtime (app), as well as
implementations of the simpler shared components.

We pass context through context.Context between the runtime and the contract.
The runtime stores the logger and the block time in it. There should exist
two functions for every XYZ of type T that we want to support in Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid lower-level
modules overwriting the value (eg. block time).
*/
package htlc
