package coin

import (
	"sort"
	"strings"

	"github.com/iov-one/htlc/errors"
)

// Coins is a set of coins. In normalized form it is sorted by denomination,
// holds at most one coin per denomination and no zero coins.
type Coins []*Coin

// CombineCoins creates a normalized set from the given coins, merging
// duplicated denominations.
func CombineCoins(cs ...Coin) (Coins, error) {
	set := make(Coins, len(cs))
	for i := range cs {
		set[i] = &cs[i]
	}
	return NormalizeCoins(set)
}

// Clone returns a deep copy.
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	for i, c := range cs {
		res[i] = c.Clone()
	}
	return res
}

// Add returns a new set with c added.
func (cs Coins) Add(c Coin) (Coins, error) {
	return NormalizeCoins(append(cs.Clone(), &c))
}

// Subtract returns a new set with c taken out. It fails if the set does not
// hold enough of the denomination.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs.Clone(), nil
	}
	have, i := cs.findCoin(c.Denom)
	if have == nil {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "no %s", c.Denom)
	}
	left, err := have.Subtract(c)
	if err != nil {
		return nil, err
	}
	res := cs.Clone()
	if left.IsZero() {
		return append(res[:i], res[i+1:]...), nil
	}
	res[i] = &left
	return res, nil
}

// Combine sums two sets.
func (cs Coins) Combine(o Coins) (Coins, error) {
	return NormalizeCoins(append(cs.Clone(), o.Clone()...))
}

// SubtractAll takes every coin of o from cs.
func (cs Coins) SubtractAll(o Coins) (Coins, error) {
	res := cs
	for _, c := range o {
		var err error
		if res, err = res.Subtract(*c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Contains returns true if the set holds at least c.
func (cs Coins) Contains(c Coin) bool {
	have, _ := cs.findCoin(c.Denom)
	if have == nil {
		return c.IsZero()
	}
	return have.IsGTE(c)
}

// findCoin returns the coin of the given denomination and its position,
// or nil if missing.
func (cs Coins) findCoin(denom string) (*Coin, int) {
	for i, c := range cs {
		if c.Denom == denom {
			return c, i
		}
	}
	return nil, len(cs)
}

// IsEmpty returns true if nothing is in the Coins
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// IsZero returns true when every coin holds a zero amount. An empty set is
// zero.
func (cs Coins) IsZero() bool {
	for _, c := range cs {
		if !IsEmpty(c) {
			return false
		}
	}
	return true
}

// Equals returns true if both sets hold the same coins in the same order.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate requires a normalized set of valid coins.
func (cs Coins) Validate() error {
	var err error
	last := ""
	for _, c := range cs {
		if c == nil {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "nil coin"))
			continue
		}
		if cerr := c.Validate(); cerr != nil {
			err = errors.Append(err, errors.Wrap(cerr, "coin"))
		}
		if c.IsZero() {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "zero coins"))
		}
		if c.Denom <= last && last != "" {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "not sorted"))
		}
		last = c.Denom
	}
	return err
}

// String joins the coins with a comma, like "5earth,100ucosm".
func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// ParseCoins reads a comma separated list of human readable coins.
// An empty string is an empty set.
func ParseCoins(s string) (Coins, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var res Coins
	for _, part := range strings.Split(s, ",") {
		c, err := ParseHumanFormat(part)
		if err != nil {
			return nil, err
		}
		res = append(res, &c)
	}
	return NormalizeCoins(res)
}

// NormalizeCoins merges coins of the same denomination, drops zero coins and
// sorts the result by denomination. A normalized input is returned as is.
func NormalizeCoins(cs Coins) (Coins, error) {
	if isNormalized(cs) {
		if len(cs) == 0 {
			return nil, nil
		}
		return cs, nil
	}

	set := make(map[string]Coin)
	for _, c := range cs {
		if c == nil {
			continue
		}
		sum, ok := set[c.Denom]
		if !ok {
			set[c.Denom] = *c
			continue
		}
		sum, err := sum.Add(*c)
		if err != nil {
			return nil, errors.Wrap(err, "cannot sum coins")
		}
		set[c.Denom] = sum
	}
	coins := make(Coins, 0, len(set))
	for _, c := range set {
		if c.IsZero() {
			continue
		}
		cpy := c
		coins = append(coins, &cpy)
	}
	if len(coins) == 0 {
		return nil, nil
	}
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].Denom < coins[j].Denom
	})
	return coins, nil
}

func isNormalized(cs Coins) bool {
	var prev *Coin
	for _, c := range cs {
		if IsEmpty(c) {
			return false
		}
		if prev != nil && prev.Denom >= c.Denom {
			return false
		}
		prev = c
	}
	return true
}
