package app

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/crypto/bech32"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/cash"
	"github.com/iov-one/htlc/x/escrow"
)

// DefaultPrefix is the bech32 human readable part used when none is
// configured.
const DefaultPrefix = "htlc"

// Bech32API converts between canonical addresses and their bech32 form.
type Bech32API struct {
	Prefix string
}

var _ escrow.API = Bech32API{}

// CanonicalAddress decodes a bech32 address carrying the configured prefix.
func (a Bech32API) CanonicalAddress(human string) (htlc.Address, error) {
	if human == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "address")
	}
	raw, err := bech32.DecodeWithPrefix(human, a.Prefix)
	if err != nil {
		return nil, err
	}
	addr := htlc.Address(raw)
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// HumanAddress returns the bech32 form of the address.
func (a Bech32API) HumanAddress(addr htlc.Address) (string, error) {
	return addr.Bech32(a.Prefix)
}

// bankQuerier answers balance queries from the bank state of the running
// transaction, so the contract sees the funds moved earlier in the same call.
type bankQuerier struct {
	db   htlc.ReadOnlyKVStore
	bank cash.Controller
	api  escrow.API
}

var _ escrow.Querier = bankQuerier{}

func (q bankQuerier) AllBalances(human string) (coin.Coins, error) {
	addr, err := q.api.CanonicalAddress(human)
	if err != nil {
		return nil, errors.Wrap(err, "balance owner")
	}
	return q.bank.Balance(q.db, addr)
}
