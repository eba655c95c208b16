/*
Package escrow implements a two party hash time locked escrow contract.

A buyer funds the contract instance. The seller takes the whole balance by
revealing a preimage whose sha256 matches the commitment fixed when the
instance was initialized. Once the expiration time is reached and nobody
claimed, the buyer takes the balance back.

The contract never moves funds itself. Claim and Refund return one payment
instruction that the host executes in the same transaction. Whether an
instance was claimed or refunded is not stored: the instance is settled once
its balance is zero.
*/
package escrow
