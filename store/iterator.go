package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/htlc/errors"
)

// ascendBtree snapshots all cached items in [start, end) in ascending order.
func ascendBtree(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	collect := func(i btree.Item) bool {
		items = append(items, i.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return items
}

// descendBtree snapshots all cached items in [start, end) in descending order.
func descendBtree(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	collect := func(i btree.Item) bool {
		k := i.(keyer).Key()
		if start != nil && bytes.Compare(k, start) < 0 {
			return false
		}
		if end != nil && bytes.Compare(k, end) >= 0 {
			return true
		}
		items = append(items, i.(keyer))
		return true
	}
	bt.Descend(collect)
	return items
}

// mergeIterator combines the cached items with the parent iterator.
// When both hold the same key the cached item wins. Deleted items hide
// the parent value and are skipped.
type mergeIterator struct {
	cached    []keyer
	parent    Iterator
	ascending bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(cached []keyer, parent Iterator, ascending bool) (*mergeIterator, error) {
	it := &mergeIterator{
		cached:    cached,
		parent:    parent,
		ascending: ascending,
	}
	if err := it.skipDeleted(); err != nil {
		it.Close()
		return nil, err
	}
	return it, nil
}

type source int

const (
	none source = iota
	cache
	parent
	both
)

// head tells which side holds the next key.
func (it *mergeIterator) head() source {
	hasCached := len(it.cached) > 0
	hasParent := it.parent.Valid()
	switch {
	case !hasCached && !hasParent:
		return none
	case !hasParent:
		return cache
	case !hasCached:
		return parent
	}

	cmp := bytes.Compare(it.cached[0].Key(), it.parent.Key())
	if !it.ascending {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return cache
	case cmp > 0:
		return parent
	default:
		return both
	}
}

func (it *mergeIterator) advance(src source) error {
	switch src {
	case cache:
		it.cached = it.cached[1:]
	case parent:
		return it.parent.Next()
	case both:
		it.cached = it.cached[1:]
		return it.parent.Next()
	}
	return nil
}

// skipDeleted moves past every deleted item at the head.
func (it *mergeIterator) skipDeleted() error {
	for {
		src := it.head()
		if src != cache && src != both {
			return nil
		}
		if _, ok := it.cached[0].(deletedItem); !ok {
			return nil
		}
		if err := it.advance(src); err != nil {
			return err
		}
	}
}

// Valid returns true while there is a key to read.
func (it *mergeIterator) Valid() bool {
	return it.head() != none
}

// Next moves to the next visible key.
func (it *mergeIterator) Next() error {
	src := it.head()
	if src == none {
		return errors.Wrap(errors.ErrDatabase, "iterator exhausted")
	}
	if err := it.advance(src); err != nil {
		return err
	}
	return it.skipDeleted()
}

// Key returns the current key.
func (it *mergeIterator) Key() []byte {
	switch it.head() {
	case cache, both:
		return it.cached[0].Key()
	case parent:
		return it.parent.Key()
	default:
		panic("read past the end of iterator")
	}
}

// Value returns the current value.
func (it *mergeIterator) Value() []byte {
	switch it.head() {
	case cache, both:
		return it.cached[0].(setItem).value
	case parent:
		return it.parent.Value()
	default:
		panic("read past the end of iterator")
	}
}

// Close releases the parent iterator.
func (it *mergeIterator) Close() {
	it.cached = nil
	it.parent.Close()
}
