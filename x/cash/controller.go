package cash

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
)

// Controller is the bank interface used by the host runtime.
type Controller interface {
	// Balance returns every coin held by the address. An unknown address
	// holds nothing.
	Balance(db htlc.ReadOnlyKVStore, addr htlc.Address) (coin.Coins, error)
	// MoveCoins moves all of amount from src to dest or nothing at all.
	MoveCoins(db htlc.KVStore, src, dest htlc.Address, amount coin.Coins) error
	// IssueCoins creates new coins in the dest wallet.
	IssueCoins(db htlc.KVStore, dest htlc.Address, amount coin.Coin) error
}

// BaseController is the wallet bucket backed Controller.
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the given bucket.
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the coins stored for addr.
func (c BaseController) Balance(db htlc.ReadOnlyKVStore, addr htlc.Address) (coin.Coins, error) {
	w, err := c.bucket.Get(db, addr)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}
	return w.Coins().Clone(), nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(db htlc.KVStore, src, dest htlc.Address, amount coin.Coins) error {
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	amount, err := coin.NormalizeCoins(amount)
	if err != nil {
		return err
	}
	if amount.IsEmpty() {
		return errors.Wrap(errors.ErrAmount, "nothing to move")
	}
	if err := amount.Validate(); err != nil {
		return err
	}

	sender, err := c.bucket.Get(db, src)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	for _, a := range amount {
		if err := sender.Subtract(*a); err != nil {
			return err
		}
	}
	if err := c.bucket.Save(db, sender); err != nil {
		return err
	}

	// read the recipient after saving the sender so moving to self works
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if err := recipient.Concat(amount); err != nil {
		return err
	}
	return c.bucket.Save(db, recipient)
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db htlc.KVStore, dest htlc.Address, amount coin.Coin) error {
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.IsZero() {
		return errors.Wrap(errors.ErrAmount, "zero issue")
	}
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	return c.bucket.Save(db, recipient)
}
