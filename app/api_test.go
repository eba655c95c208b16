package app

import (
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/htlctest/assert"
)

func TestBech32API(t *testing.T) {
	api := Bech32API{Prefix: "htlc"}
	addr := htlctest.RandomAddr(t)

	human, err := api.HumanAddress(addr)
	assert.Nil(t, err)
	assert.Equal(t, htlctest.Bech32(t, "htlc", addr), human)

	back, err := api.CanonicalAddress(human)
	assert.Nil(t, err)
	assert.Equal(t, addr, back)

	cases := map[string]struct {
		human   string
		wantErr *errors.Error
	}{
		"empty":        {human: "", wantErr: errors.ErrEmpty},
		"other prefix": {human: htlctest.Bech32(t, "cosmos", addr), wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := api.CanonicalAddress(tc.human)
			assert.IsErr(t, tc.wantErr, err)
		})
	}

	if _, err := api.CanonicalAddress(addr.String()); err == nil {
		t.Fatal("hex form must not be accepted")
	}

	_, err = api.HumanAddress(htlc.Address("short"))
	assert.IsErr(t, errors.ErrInput, err)
}
