package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// SecretHashLength is the length of the hex encoded sha256 commitment.
const SecretHashLength = 64

// EscrowState is the single record every instance persists on Initialize.
type EscrowState struct {
	// Buyer receives a refund.
	Buyer htlc.Address `protobuf:"bytes,1,opt,name=buyer,proto3" json:"buyer"`
	// Seller receives a successful claim.
	Seller htlc.Address `protobuf:"bytes,2,opt,name=seller,proto3" json:"seller"`
	// Expiration is the unix second from which a refund is allowed.
	Expiration htlc.UnixTime `protobuf:"varint,3,opt,name=expiration,proto3" json:"expiration"`
	// Value is informational and never enforced.
	Value uint64 `protobuf:"varint,4,opt,name=value,proto3" json:"value"`
	// SecretHash is the lowercase hex sha256 of the preimage.
	SecretHash string `protobuf:"bytes,5,opt,name=secret_hash,json=secretHash,proto3" json:"secret_hash"`
}

var _ orm.Model = (*EscrowState)(nil)

func (m *EscrowState) Reset()         { *m = EscrowState{} }
func (m *EscrowState) String() string { return proto.CompactTextString(m) }
func (*EscrowState) ProtoMessage()    {}

// Validate ensures the state is complete.
func (m *EscrowState) Validate() error {
	if err := m.Buyer.Validate(); err != nil {
		return errors.Wrap(err, "buyer")
	}
	if err := m.Seller.Validate(); err != nil {
		return errors.Wrap(err, "seller")
	}
	if len(m.SecretHash) != SecretHashLength {
		return errors.Wrapf(ErrInvalidCommitment, "got %d characters", len(m.SecretHash))
	}
	return nil
}

// Copy returns a deep copy.
func (m *EscrowState) Copy() orm.Model {
	return &EscrowState{
		Buyer:      m.Buyer.Clone(),
		Seller:     m.Seller.Clone(),
		Expiration: m.Expiration,
		Value:      m.Value,
		SecretHash: m.SecretHash,
	}
}

// stateRecord is where an instance keeps its EscrowState inside the
// storage the host hands to it.
var stateRecord = orm.NewSingleton("escrow")

// LoadState reads the state of the instance. A missing record is reported as
// ErrUninitialized.
func LoadState(db htlc.ReadOnlyKVStore) (*EscrowState, error) {
	var s EscrowState
	switch err := stateRecord.Load(db, &s); {
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(ErrUninitialized, "no escrow state")
	case err != nil:
		return nil, errors.Wrap(err, "load escrow state")
	}
	return &s, nil
}

func saveState(db htlc.KVStore, s *EscrowState) error {
	return stateRecord.Create(db, s)
}
