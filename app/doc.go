/*
Package app is the host runtime of escrow contract instances.

It keeps an instance registry, owns the bank the instances hold their funds
in and executes every contract entry point inside a single cache-wrapped
transaction. Payment instructions returned by the contract are executed in
the same transaction, so a call either applies completely or leaves no
trace.

Instance addresses are derived from a condition:

	htlc.NewCondition("htlc", "instance", <8 byte id>).Address()

and presented in bech32 form using the configured network prefix.
*/
package app
