package coin

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest/assert"
)

func TestCoinAdd(t *testing.T) {
	cases := map[string]struct {
		a, b    Coin
		want    Coin
		wantErr *errors.Error
	}{
		"same denomination": {
			a:    NewCoin(7, "ucosm"),
			b:    NewCoin(5, "ucosm"),
			want: NewCoin(12, "ucosm"),
		},
		"different denomination": {
			a:       NewCoin(7, "ucosm"),
			b:       NewCoin(5, "earth"),
			wantErr: errors.ErrCurrency,
		},
		"overflow": {
			a:       NewCoin(math.MaxUint64, "ucosm"),
			b:       NewCoin(1, "ucosm"),
			wantErr: errors.ErrOverflow,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := tc.a.Add(tc.b)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoinSubtract(t *testing.T) {
	c := NewCoin(10, "earth")

	left, err := c.Subtract(NewCoin(4, "earth"))
	assert.Nil(t, err)
	assert.Equal(t, NewCoin(6, "earth"), left)

	_, err = c.Subtract(NewCoin(11, "earth"))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)

	_, err = c.Subtract(NewCoin(1, "ucosm"))
	assert.IsErr(t, errors.ErrCurrency, err)
}

func TestCoinCompare(t *testing.T) {
	a := NewCoin(5, "earth")
	assert.Equal(t, 0, a.Compare(NewCoin(5, "earth")))
	assert.Equal(t, -1, a.Compare(NewCoin(6, "earth")))
	assert.Equal(t, 1, a.Compare(NewCoin(4, "earth")))
	assert.Equal(t, -1, a.Compare(NewCoin(1, "ucosm")))
	assert.Equal(t, true, a.IsGTE(NewCoin(5, "earth")))
	assert.Equal(t, false, a.IsGTE(NewCoin(5, "ucosm")))
}

func TestCoinValidate(t *testing.T) {
	cases := map[string]struct {
		coin    Coin
		wantErr *errors.Error
	}{
		"valid":             {coin: NewCoin(1, "ucosm")},
		"zero is valid":     {coin: NewCoin(0, "ucosm")},
		"with slash":        {coin: NewCoin(1, "ibc/earth")},
		"missing denom":     {coin: NewCoin(1, ""), wantErr: errors.ErrCurrency},
		"upper case":        {coin: NewCoin(1, "IOV"), wantErr: errors.ErrCurrency},
		"too short":         {coin: NewCoin(1, "ab"), wantErr: errors.ErrCurrency},
		"starts with digit": {coin: NewCoin(1, "1abc"), wantErr: errors.ErrCurrency},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.coin.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestParseHumanFormat(t *testing.T) {
	cases := map[string]struct {
		input   string
		want    Coin
		wantErr bool
	}{
		"compact":        {input: "100ucosm", want: NewCoin(100, "ucosm")},
		"with space":     {input: "7 earth", want: NewCoin(7, "earth")},
		"zero":           {input: "0earth", want: NewCoin(0, "earth")},
		"max":            {input: "18446744073709551615ucosm", want: NewCoin(math.MaxUint64, "ucosm")},
		"too large":      {input: "18446744073709551616ucosm", wantErr: true},
		"negative":       {input: "-1ucosm", wantErr: true},
		"fraction":       {input: "1.5ucosm", wantErr: true},
		"missing denom":  {input: "100", wantErr: true},
		"missing amount": {input: "ucosm", wantErr: true},
		"two coins":      {input: "1ucosm 2earth", wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseHumanFormat(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("want error, got %v", got)
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
			// String output can be parsed back
			again, err := ParseHumanFormat(got.String())
			assert.Nil(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestCoinJSON(t *testing.T) {
	var c Coin
	assert.Nil(t, json.Unmarshal([]byte(`"12 ucosm"`), &c))
	assert.Equal(t, NewCoin(12, "ucosm"), c)

	assert.Nil(t, json.Unmarshal([]byte(`{"denom": "earth", "amount": "3"}`), &c))
	assert.Equal(t, NewCoin(3, "earth"), c)

	raw, err := json.Marshal(NewCoin(3, "earth"))
	assert.Nil(t, err)
	assert.Equal(t, `{"denom":"earth","amount":"3"}`, string(raw))

	err = json.Unmarshal([]byte(`"twelve ucosm"`), &c)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestCoinProto(t *testing.T) {
	c := NewCoin(123456789, "ucosm")
	raw, err := proto.Marshal(&c)
	assert.Nil(t, err)

	var got Coin
	assert.Nil(t, proto.Unmarshal(raw, &got))
	assert.Equal(t, c, got)
}
