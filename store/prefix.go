package store

import (
	"github.com/iov-one/htlc/errors"
)

// PrefixStore exposes the keys of a parent store that start with a given
// prefix, with the prefix stripped. Every contract instance sees its own
// storage through one of these.
type PrefixStore struct {
	prefix []byte
	parent KVStore
}

var _ KVStore = PrefixStore{}

// NewPrefixStore returns a view on parent limited to prefix.
func NewPrefixStore(parent KVStore, prefix []byte) PrefixStore {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return PrefixStore{prefix: p, parent: parent}
}

func (p PrefixStore) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	return append(append(out, p.prefix...), k...)
}

// Get returns the value stored under the prefixed key.
func (p PrefixStore) Get(key []byte) ([]byte, error) {
	return p.parent.Get(p.key(key))
}

// Has checks the prefixed key.
func (p PrefixStore) Has(key []byte) (bool, error) {
	return p.parent.Has(p.key(key))
}

// Set writes under the prefixed key.
func (p PrefixStore) Set(key, value []byte) error {
	return p.parent.Set(p.key(key), value)
}

// Delete removes the prefixed key.
func (p PrefixStore) Delete(key []byte) error {
	return p.parent.Delete(p.key(key))
}

// NewBatch returns a batch that prefixes all keys.
func (p PrefixStore) NewBatch() Batch {
	return prefixBatch{p: p, b: p.parent.NewBatch()}
}

func (p PrefixStore) bounds(start, end []byte) ([]byte, []byte) {
	s := p.key(start)
	var e []byte
	if end == nil {
		e = PrefixEnd(p.prefix)
	} else {
		e = p.key(end)
	}
	return s, e
}

// Iterator iterates over the prefixed domain in ascending order.
func (p PrefixStore) Iterator(start, end []byte) (Iterator, error) {
	s, e := p.bounds(start, end)
	it, err := p.parent.Iterator(s, e)
	if err != nil {
		return nil, errors.Wrap(err, "prefix iterator")
	}
	return prefixIterator{Iterator: it, n: len(p.prefix)}, nil
}

// ReverseIterator iterates over the prefixed domain in descending order.
func (p PrefixStore) ReverseIterator(start, end []byte) (Iterator, error) {
	s, e := p.bounds(start, end)
	it, err := p.parent.ReverseIterator(s, e)
	if err != nil {
		return nil, errors.Wrap(err, "prefix iterator")
	}
	return prefixIterator{Iterator: it, n: len(p.prefix)}, nil
}

type prefixIterator struct {
	Iterator
	n int
}

func (i prefixIterator) Key() []byte {
	return i.Iterator.Key()[i.n:]
}

type prefixBatch struct {
	p PrefixStore
	b Batch
}

func (b prefixBatch) Set(key, value []byte) error { return b.b.Set(b.p.key(key), value) }
func (b prefixBatch) Delete(key []byte) error     { return b.b.Delete(b.p.key(key)) }
func (b prefixBatch) Write() error                { return b.b.Write() }

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
