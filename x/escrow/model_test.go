package escrow

import (
	"strings"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
)

func TestEscrowStateValidate(t *testing.T) {
	valid := func() *EscrowState {
		return &EscrowState{
			Buyer:      htlctest.RandomAddr(t),
			Seller:     htlctest.RandomAddr(t),
			Expiration: 10,
			SecretHash: strings.Repeat("a", 64),
		}
	}

	cases := map[string]struct {
		state   *EscrowState
		wantErr *errors.Error
	}{
		"valid": {state: valid()},
		"missing buyer": {
			state:   func() *EscrowState { s := valid(); s.Buyer = nil; return s }(),
			wantErr: errors.ErrEmpty,
		},
		"short seller": {
			state:   func() *EscrowState { s := valid(); s.Seller = s.Seller[:4]; return s }(),
			wantErr: errors.ErrInput,
		},
		"bad hash": {
			state:   func() *EscrowState { s := valid(); s.SecretHash = "abc"; return s }(),
			wantErr: ErrInvalidCommitment,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, tc.state.Validate())
		})
	}
}

func TestEscrowStateProto(t *testing.T) {
	s := &EscrowState{
		Buyer:      htlctest.RandomAddr(t),
		Seller:     htlctest.RandomAddr(t),
		Expiration: 1000,
		Value:      500,
		SecretHash: strings.Repeat("f", 64),
	}
	bz, err := proto.Marshal(s)
	assert.Nil(t, err)

	var got EscrowState
	assert.Nil(t, proto.Unmarshal(bz, &got))
	assert.Equal(t, s, &got)

	cpy := s.Copy().(*EscrowState)
	cpy.Buyer[0]++
	assert.Equal(t, false, cpy.Buyer.Equals(s.Buyer))
}

func TestLoadState(t *testing.T) {
	db := store.MemStore()

	_, err := LoadState(db)
	assert.IsErr(t, ErrUninitialized, err)

	s := &EscrowState{
		Buyer:      htlctest.RandomAddr(t),
		Seller:     htlctest.RandomAddr(t),
		Expiration: 7,
		SecretHash: strings.Repeat("0", 64),
	}
	assert.Nil(t, saveState(db, s))

	got, err := LoadState(db)
	assert.Nil(t, err)
	assert.Equal(t, s, got)
}
