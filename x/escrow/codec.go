package escrow

import (
	amino "github.com/tendermint/go-amino"

	"github.com/iov-one/htlc/errors"
)

var cdc = amino.NewCodec()

func init() {
	RegisterCodec(cdc)
	cdc.Seal()
}

// RegisterCodec registers the escrow messages on the given codec.
func RegisterCodec(c *amino.Codec) {
	c.RegisterInterface((*HandleMsg)(nil), nil)
	c.RegisterConcrete(ClaimMsg{}, "escrow/ClaimMsg", nil)
	c.RegisterConcrete(RefundMsg{}, "escrow/RefundMsg", nil)
}

// EncodeInitMsg returns the JSON form of the message.
func EncodeInitMsg(m InitMsg) ([]byte, error) {
	bz, err := cdc.MarshalJSON(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	return bz, nil
}

// DecodeInitMsg parses the JSON form of an InitMsg.
func DecodeInitMsg(bz []byte) (InitMsg, error) {
	var m InitMsg
	if err := cdc.UnmarshalJSON(bz, &m); err != nil {
		return m, errors.Wrap(errors.ErrMsg, err.Error())
	}
	return m, nil
}

// EncodeHandleMsg returns the JSON form of the message, tagged with its
// registered type name.
func EncodeHandleMsg(m HandleMsg) ([]byte, error) {
	bz, err := cdc.MarshalJSON(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	return bz, nil
}

// DecodeHandleMsg parses a message produced by EncodeHandleMsg.
func DecodeHandleMsg(bz []byte) (HandleMsg, error) {
	var m HandleMsg
	if err := cdc.UnmarshalJSON(bz, &m); err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	if m == nil {
		return nil, errors.Wrap(errors.ErrMsg, "empty message")
	}
	return m, nil
}

// MarshalBinary returns the compact amino form of the message, used to
// compute the message hash.
func MarshalBinary(m HandleMsg) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	return bz, nil
}
