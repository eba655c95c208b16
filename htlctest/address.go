package htlctest

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/iov-one/htlc"
)

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) htlc.Address {
	t.Helper()
	raw := make([]byte, htlc.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := htlc.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not valid: %s", err)
	}
	return a
}

// DecodeAddr takes a hex encoded address string and returns its raw
// representation. It ensures that returned value is a valid address.
func DecodeAddr(t testing.TB, encoded string) htlc.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("cannot decode hex string: %s", err)
	}
	a := htlc.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded string is not a valid address: %s", err)
	}
	return a
}

// ParseAddress takes an address in any format understood by
// htlc.ParseAddress and returns its binary representation.
func ParseAddress(t testing.TB, encodedAddress string) htlc.Address {
	t.Helper()
	addr, err := htlc.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}

// Bech32 returns the bech32 form of the address using the given prefix.
func Bech32(t testing.TB, hrp string, a htlc.Address) string {
	t.Helper()
	s, err := a.Bech32(hrp)
	if err != nil {
		t.Fatalf("cannot encode %s: %s", a, err)
	}
	return s
}
