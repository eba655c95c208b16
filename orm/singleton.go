package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Singleton stores exactly one record under a fixed key. It is the storage
// shape of a contract that owns a single piece of state.
type Singleton struct {
	key []byte
}

// NewSingleton returns a singleton stored under the given key.
func NewSingleton(key string) Singleton {
	return Singleton{key: []byte(key)}
}

// Load reads the record into dest. It returns ErrNotFound when nothing was
// stored yet.
func (s Singleton) Load(db htlc.ReadOnlyKVStore, dest Model) error {
	raw, err := db.Get(s.key)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "singleton %q", s.key)
	}
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "singleton %q: %s", s.key, err)
	}
	return nil
}

// Create validates and writes the record. A second Create fails with
// ErrDuplicate, the record is never replaced.
func (s Singleton) Create(db htlc.KVStore, value Model) error {
	if err := value.Validate(); err != nil {
		return err
	}
	exists, err := db.Has(s.key)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(errors.ErrDuplicate, "singleton %q", s.key)
	}
	raw, err := proto.Marshal(value)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "singleton %q: %s", s.key, err)
	}
	return db.Set(s.key, raw)
}

// Exists returns true once the record was created.
func (s Singleton) Exists(db htlc.ReadOnlyKVStore) (bool, error) {
	return db.Has(s.key)
}
