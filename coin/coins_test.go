package coin

import (
	"math"
	"testing"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest/assert"
)

func TestNormalizeCoins(t *testing.T) {
	cases := map[string]struct {
		input   Coins
		want    Coins
		wantErr *errors.Error
	}{
		"empty": {
			input: nil,
			want:  nil,
		},
		"only zero coins": {
			input: Coins{NewCoinp(0, "earth"), NewCoinp(0, "ucosm")},
			want:  nil,
		},
		"already normalized": {
			input: Coins{NewCoinp(1, "earth"), NewCoinp(2, "ucosm")},
			want:  Coins{NewCoinp(1, "earth"), NewCoinp(2, "ucosm")},
		},
		"unsorted with duplicates": {
			input: Coins{NewCoinp(2, "ucosm"), NewCoinp(1, "earth"), NewCoinp(3, "ucosm"), nil},
			want:  Coins{NewCoinp(1, "earth"), NewCoinp(5, "ucosm")},
		},
		"overflow": {
			input:   Coins{NewCoinp(math.MaxUint64, "ucosm"), NewCoinp(1, "ucosm")},
			wantErr: errors.ErrOverflow,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeCoins(tc.input)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
			assert.Nil(t, got.Validate())
		})
	}
}

func TestCoinsArithmetic(t *testing.T) {
	set, err := CombineCoins(NewCoin(5, "earth"), NewCoin(10, "ucosm"))
	assert.Nil(t, err)

	set, err = set.Add(NewCoin(5, "earth"))
	assert.Nil(t, err)
	assert.Equal(t, "10earth,10ucosm", set.String())

	set, err = set.Subtract(NewCoin(10, "ucosm"))
	assert.Nil(t, err)
	assert.Equal(t, "10earth", set.String())
	assert.Equal(t, true, set.Contains(NewCoin(10, "earth")))
	assert.Equal(t, false, set.Contains(NewCoin(1, "ucosm")))

	_, err = set.Subtract(NewCoin(1, "ucosm"))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)

	other, err := ParseCoins("1ucosm, 2earth")
	assert.Nil(t, err)
	all, err := set.Combine(other)
	assert.Nil(t, err)
	assert.Equal(t, "12earth,1ucosm", all.String())

	left, err := all.SubtractAll(other)
	assert.Nil(t, err)
	assert.Equal(t, true, left.Equals(set))
}

func TestCoinsIsZero(t *testing.T) {
	cases := map[string]struct {
		coins Coins
		want  bool
	}{
		"nil":          {coins: nil, want: true},
		"zero entries": {coins: Coins{NewCoinp(0, "earth")}, want: true},
		"one positive": {coins: Coins{NewCoinp(0, "earth"), NewCoinp(1, "ucosm")}, want: false},
		"max amounts":  {coins: Coins{NewCoinp(math.MaxUint64, "earth"), NewCoinp(math.MaxUint64, "ucosm")}, want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.coins.IsZero())
		})
	}
}

func TestCoinsValidate(t *testing.T) {
	unsorted := Coins{NewCoinp(1, "ucosm"), NewCoinp(1, "earth")}
	assert.IsErr(t, errors.ErrState, unsorted.Validate())

	withZero := Coins{NewCoinp(0, "earth")}
	assert.IsErr(t, errors.ErrState, withZero.Validate())

	badDenom := Coins{NewCoinp(1, "X")}
	assert.IsErr(t, errors.ErrCurrency, badDenom.Validate())
}

func TestParseCoins(t *testing.T) {
	got, err := ParseCoins("")
	assert.Nil(t, err)
	assert.Equal(t, Coins(nil), got)

	_, err = ParseCoins("1ucosm,bad")
	assert.IsErr(t, errors.ErrInput, err)
}
