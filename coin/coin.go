/*
Package coin defines the fungible amounts held and moved by the host bank.
A Coin is an amount of a single denomination, Coins is a normalized set of
them with at most one entry per denomination.
*/
package coin

import (
	"encoding/json"
	"math/bits"
	"regexp"
	"strconv"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/errors"
)

// IsDenom validates a denomination name, like "ucosm" or "earth".
var IsDenom = regexp.MustCompile(`^[a-z][a-z0-9/]{2,31}$`).MatchString

// Coin is an amount of one denomination.
type Coin struct {
	Denom  string `protobuf:"bytes,1,opt,name=denom,proto3" json:"denom"`
	Amount uint64 `protobuf:"varint,2,opt,name=amount,proto3" json:"amount,string"`
}

var _ proto.Message = (*Coin)(nil)

// NewCoin creates a new coin object
func NewCoin(amount uint64, denom string) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(amount uint64, denom string) *Coin {
	c := NewCoin(amount, denom)
	return &c
}

// Reset implements proto.Message
func (c *Coin) Reset() { *c = Coin{} }

// ProtoMessage implements proto.Message
func (*Coin) ProtoMessage() {}

// Add sums two coins of the same denomination.
func (c Coin) Add(o Coin) (Coin, error) {
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "adding %s to %s", o.Denom, c.Denom)
	}
	sum, carry := bits.Add64(c.Amount, o.Amount, 0)
	if carry != 0 {
		return Coin{}, errors.ErrOverflow
	}
	return Coin{Denom: c.Denom, Amount: sum}, nil
}

// Subtract takes o from c. Going below zero is ErrInsufficientAmount.
func (c Coin) Subtract(o Coin) (Coin, error) {
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "subtracting %s from %s", o.Denom, c.Denom)
	}
	if o.Amount > c.Amount {
		return Coin{}, errors.Wrapf(errors.ErrInsufficientAmount, "%s < %s", c, o)
	}
	return Coin{Denom: c.Denom, Amount: c.Amount - o.Amount}, nil
}

// Compare returns -1, 0 or 1 comparing the amounts. Coins of different
// denominations are ordered by denomination.
func (c Coin) Compare(o Coin) int {
	switch {
	case c.Denom < o.Denom:
		return -1
	case c.Denom > o.Denom:
		return 1
	case c.Amount < o.Amount:
		return -1
	case c.Amount > o.Amount:
		return 1
	default:
		return 0
	}
}

// Equals returns true if both coins hold the same amount of the same
// denomination.
func (c Coin) Equals(o Coin) bool {
	return c.Denom == o.Denom && c.Amount == o.Amount
}

// IsEmpty returns true for nil or zero coins.
func IsEmpty(c *Coin) bool {
	return c == nil || c.IsZero()
}

// IsZero returns true if the amount is 0
func (c Coin) IsZero() bool {
	return c.Amount == 0
}

// IsGTE returns true if c holds at least o of the same denomination.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Amount >= o.Amount
}

// SameType returns true if they have the same denomination
func (c Coin) SameType(o Coin) bool {
	return c.Denom == o.Denom
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	cpy := *c
	return &cpy
}

// Validate ensures the denomination is well formed.
func (c Coin) Validate() error {
	if !IsDenom(c.Denom) {
		return errors.Wrapf(errors.ErrCurrency, "invalid denomination %q", c.Denom)
	}
	return nil
}

// String returns the human readable format, for example "100ucosm".
func (c Coin) String() string {
	return strconv.FormatUint(c.Amount, 10) + c.Denom
}

// UnmarshalJSON accepts either the human readable string or the object form.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	// Coin has its own UnmarshalJSON, so decode into a plain struct.
	var coin struct {
		Denom  string `json:"denom"`
		Amount uint64 `json:"amount,string"`
	}
	if err := json.Unmarshal(raw, &coin); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	c.Denom = coin.Denom
	c.Amount = coin.Amount
	return nil
}

var humanCoinFormatRx = regexp.MustCompile(`^\s*(\d+)\s*([a-z][a-z0-9/]{2,31})\s*$`)

// ParseHumanFormat parses "<amount><denom>", optionally with whitespace
// between the two, like "100ucosm" or "7 earth".
func ParseHumanFormat(h string) (Coin, error) {
	m := humanCoinFormatRx.FindStringSubmatch(h)
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin format %q", h)
	}
	amount, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "amount %q", m[1])
	}
	return Coin{Denom: m[2], Amount: amount}, nil
}

// Set updates this coin value to what is provided. This method implements
// flag.Value interface.
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}

// Type implements pflag.Value.
func (*Coin) Type() string { return "coin" }
