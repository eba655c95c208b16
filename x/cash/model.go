package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Set is the stored content of a wallet: a normalized set of coins.
type Set struct {
	Coins coin.Coins `protobuf:"bytes,1,rep,name=coins,proto3" json:"coins"`
}

var _ orm.Model = (*Set)(nil)

func (s *Set) Reset()         { *s = Set{} }
func (s *Set) String() string { return proto.CompactTextString(s) }
func (*Set) ProtoMessage()    {}

// Validate requires a normalized set of valid coins.
func (s *Set) Validate() error {
	return s.Coins.Validate()
}

// Copy makes a new set with the same coins
func (s *Set) Copy() orm.Model {
	return &Set{Coins: s.Coins.Clone()}
}

// Wallet is a set of coins stored under an address.
// It is a type-safe wrapper around orm.SimpleObj.
type Wallet struct {
	key   htlc.Address
	value *Set
}

var _ orm.Object = (*Wallet)(nil)

// NewWallet creates an empty wallet with this address
func NewWallet(key htlc.Address) *Wallet {
	return &Wallet{key: key, value: new(Set)}
}

// WalletWith creates a wallet holding the given coins.
func WalletWith(key htlc.Address, coins ...*coin.Coin) (*Wallet, error) {
	w := NewWallet(key)
	if err := w.Concat(coins); err != nil {
		return nil, err
	}
	return w, nil
}

// Value gets the value stored in the object
func (w Wallet) Value() orm.Model {
	return w.value
}

// Key returns the key to store the object under
func (w Wallet) Key() []byte {
	return w.key
}

// Address returns the owner of the wallet.
func (w Wallet) Address() htlc.Address {
	return w.key
}

// Validate checks the address and the coins.
func (w Wallet) Validate() error {
	if err := w.key.Validate(); err != nil {
		return errors.Wrap(err, "wallet address")
	}
	return w.value.Validate()
}

// SetKey may be used to update a simple obj key
func (w *Wallet) SetKey(key []byte) {
	w.key = key
}

// Clone returns an empty wallet of the same address.
func (w *Wallet) Clone() orm.Object {
	return &Wallet{key: w.key.Clone(), value: new(Set)}
}

// Coins returns the coins stored in the wallet
func (w Wallet) Coins() coin.Coins {
	return w.value.Coins
}

// Add modifies the wallet to add Coin c
func (w *Wallet) Add(c coin.Coin) error {
	cs, err := w.Coins().Add(c)
	if err != nil {
		return err
	}
	w.value.Coins = cs
	return nil
}

// Subtract modifies the wallet to remove Coin c. It fails if the wallet
// does not hold enough.
func (w *Wallet) Subtract(c coin.Coin) error {
	cs, err := w.Coins().Subtract(c)
	if err != nil {
		return err
	}
	w.value.Coins = cs
	return nil
}

// Concat merges the coins into the wallet.
func (w *Wallet) Concat(coins coin.Coins) error {
	joint, err := w.Coins().Combine(coins)
	if err != nil {
		return err
	}
	w.value.Coins = joint
	return nil
}

// Bucket is a type-safe wrapper around orm.Bucket
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName, NewWallet(nil)),
	}
}

// Get returns the wallet of the address, nil if there is none.
func (b Bucket) Get(db htlc.ReadOnlyKVStore, key htlc.Address) (*Wallet, error) {
	obj, err := b.Bucket.Get(db, key)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	w, ok := obj.(*Wallet)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj)
	}
	return w, nil
}

// Save stores the wallet. Empty wallets are removed.
func (b Bucket) Save(db htlc.KVStore, w *Wallet) error {
	if w.Coins().IsEmpty() {
		if err := w.key.Validate(); err != nil {
			return errors.Wrap(err, "wallet address")
		}
		return b.Bucket.Delete(db, w.key)
	}
	return b.Bucket.Save(db, w)
}

// GetOrCreate returns the stored wallet or a new empty one.
func (b Bucket) GetOrCreate(db htlc.ReadOnlyKVStore, key htlc.Address) (*Wallet, error) {
	wallet, err := b.Get(db, key)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		wallet = NewWallet(key)
	}
	return wallet, nil
}
