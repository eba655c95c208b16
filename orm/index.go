package orm

import (
	"encoding/binary"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
)

// Indexer calculates the secondary index key for a value. A nil key means
// the object is not indexed.
type Indexer func(Object) ([]byte, error)

// Index is a secondary index of a bucket. Every entry is stored as an empty
// value under
//
//	_i.<name>:<uvarint len(index key)><index key><primary key>
//
// so all primary keys of one index key are found with a single prefix scan.
type Index struct {
	prefix  []byte
	indexer Indexer
	unique  bool
}

// NewIndex creates an index. A unique index refuses a second primary key
// for the same index key.
func NewIndex(name string, indexer Indexer, unique bool) Index {
	return Index{
		prefix:  []byte("_i." + name + ":"),
		indexer: indexer,
		unique:  unique,
	}
}

func (i Index) scanPrefix(index []byte) []byte {
	var n [binary.MaxVarintLen64]byte
	l := binary.PutUvarint(n[:], uint64(len(index)))
	out := make([]byte, 0, len(i.prefix)+l+len(index))
	out = append(out, i.prefix...)
	out = append(out, n[:l]...)
	return append(out, index...)
}

// GetAt returns the primary keys stored for an index key.
func (i Index) GetAt(db htlc.ReadOnlyKVStore, index []byte) ([][]byte, error) {
	prefix := i.scanPrefix(index)
	it, err := db.Iterator(prefix, store.PrefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var refs [][]byte
	for it.Valid() {
		refs = append(refs, append([]byte(nil), it.Key()[len(prefix):]...))
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// Update moves the entry of key from the index of prev to the index of
// save. Either may be nil.
func (i Index) Update(db htlc.KVStore, key []byte, prev, save Object) error {
	var prevIdx, saveIdx []byte
	var err error
	if prev != nil {
		if prevIdx, err = i.indexer(prev); err != nil {
			return err
		}
	}
	if save != nil {
		if saveIdx, err = i.indexer(save); err != nil {
			return err
		}
	}
	if prevIdx != nil && saveIdx != nil && string(prevIdx) == string(saveIdx) {
		return nil
	}

	if prevIdx != nil {
		if err := db.Delete(append(i.scanPrefix(prevIdx), key...)); err != nil {
			return err
		}
	}
	if saveIdx == nil {
		return nil
	}
	if i.unique {
		refs, err := i.GetAt(db, saveIdx)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return errors.Wrapf(ErrUniqueConstraint, "%X", saveIdx)
		}
	}
	return db.Set(append(i.scanPrefix(saveIdx), key...), []byte{})
}
