package escrow

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

const (
	pathInit   = "escrow/init"
	pathClaim  = "escrow/claim"
	pathRefund = "escrow/refund"
)

// InitMsg creates the escrow of an instance. Addresses are in the human
// readable form of the host.
type InitMsg struct {
	Buyer      string        `json:"buyer"`
	Seller     string        `json:"seller"`
	Expiration htlc.UnixTime `json:"expiration"`
	Value      uint64        `json:"value"`
	SecretHash string        `json:"secret_hash"`
}

// Path returns the route of the message.
func (InitMsg) Path() string { return pathInit }

// Validate checks the commitment. Addresses are checked when resolved.
func (m InitMsg) Validate() error {
	if len(m.SecretHash) != SecretHashLength {
		return errors.Wrapf(ErrInvalidCommitment, "got %d characters", len(m.SecretHash))
	}
	return nil
}

// HandleMsg is implemented by every message accepted by Handle.
type HandleMsg interface {
	Path() string
	Validate() error
}

// ClaimMsg reveals the preimage and pays the balance to the seller.
type ClaimMsg struct {
	// Secret is the hex encoded 32 byte preimage.
	Secret string `json:"secret"`
}

var _ HandleMsg = ClaimMsg{}

// Path returns the route of the message.
func (ClaimMsg) Path() string { return pathClaim }

// Validate checks the preimage length.
func (m ClaimMsg) Validate() error {
	if len(m.Secret) != SecretHashLength {
		return errors.Wrapf(ErrInvalidPreimageLength, "got %d characters", len(m.Secret))
	}
	return nil
}

// RefundMsg pays the balance back to the buyer after expiration.
type RefundMsg struct{}

var _ HandleMsg = RefundMsg{}

// Path returns the route of the message.
func (RefundMsg) Path() string { return pathRefund }

// Validate always passes.
func (RefundMsg) Validate() error { return nil }
