package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"testing"

	"github.com/iov-one/htlc/htlctest/assert"
)

// TestSuite runs the storage checks the runtime relies on against any
// CacheableKVStore. The memory store and the iavl commit store share it.
type TestSuite struct {
	makeBase TestStoreConstructor
}

type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// Transaction checks that a cache wrap behaves like a single call: writes
// stay in the cache until Write and a Discard leaves the base untouched.
func (s *TestSuite) Transaction(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	buyer, seller := walletKey(1), walletKey(2)
	assert.Nil(t, base.Set(buyer, []byte("1000ucosm")))

	// a failed call
	failed := base.CacheWrap()
	assert.Nil(t, failed.Set(seller, []byte("500ucosm")))
	assert.Nil(t, failed.Delete(buyer))
	s.AssertGetHas(t, failed, seller, []byte("500ucosm"), true)
	s.AssertGetHas(t, failed, buyer, nil, false)
	failed.Discard()
	s.AssertGetHas(t, base, buyer, []byte("1000ucosm"), true)
	s.AssertGetHas(t, base, seller, nil, false)

	// a successful one
	call := base.CacheWrap()
	assert.Nil(t, call.Set(buyer, []byte("500ucosm")))
	assert.Nil(t, call.Set(seller, []byte("500ucosm")))
	s.AssertGetHas(t, base, buyer, []byte("1000ucosm"), true)
	assert.Nil(t, call.Write())
	s.AssertGetHas(t, base, buyer, []byte("500ucosm"), true)
	s.AssertGetHas(t, base, seller, []byte("500ucosm"), true)

	// a payout that empties a wallet removes it
	payout := base.CacheWrap()
	assert.Nil(t, payout.Delete(buyer))
	assert.Nil(t, payout.Set(seller, []byte("1000ucosm")))
	assert.Nil(t, payout.Write())
	s.AssertGetHas(t, base, buyer, nil, false)
	s.AssertGetHas(t, base, seller, []byte("1000ucosm"), true)
}

// Overlay checks how a cache resolves its own writes against the data
// of its parent.
func (s *TestSuite) Overlay(t *testing.T) {
	w := func(i int) []byte { return walletKey(i) }
	v := func(s string) []byte { return []byte(s) }

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(w(1), v("7earth")), SetOp(w(2), v("3ucosm"))},
			childOps:      []Op{SetOp(w(1), v("9earth")), SetOp(w(3), v("1ucosm")), DelOp(w(2))},
			parentQueries: []Model{Pair(w(1), v("7earth")), Pair(w(2), v("3ucosm")), Pair(w(3), nil)},
			childQueries:  []Model{Pair(w(1), v("9earth")), Pair(w(2), nil), Pair(w(3), v("1ucosm"))},
		},
		"delete then recreate": {
			parentOps:     []Op{SetOp(w(1), v("1ucosm"))},
			childOps:      []Op{DelOp(w(1)), SetOp(w(1), v("2ucosm"))},
			parentQueries: []Model{Pair(w(1), v("1ucosm"))},
			childQueries:  []Model{Pair(w(1), v("2ucosm"))},
		},
		"delete a key the parent never had": {
			childOps:      []Op{DelOp(w(4))},
			parentQueries: []Model{Pair(w(4), nil)},
			childQueries:  []Model{Pair(w(4), nil)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// Iteration checks ordered iteration over a cache merged with its parent,
// in both directions and with bounds.
func (s *TestSuite) Iteration(t *testing.T) {
	parentOps := makeSetOps(walletModels(0, 20, "p")...)
	var childOps []Op
	for i := 0; i < 10; i += 2 {
		childOps = append(childOps, SetOp(walletKey(i), []byte(fmt.Sprintf("c%d", i))))
	}
	for i := 3; i < 20; i += 5 {
		childOps = append(childOps, DelOp(walletKey(i)))
	}
	childOps = append(childOps, makeSetOps(walletModels(20, 25, "c")...)...)
	both := applyOps(parentOps, childOps)

	cases := map[string]iterCase{
		"child only": {
			child: parentOps,
			queries: []rangeQuery{
				{nil, nil, false, applyOps(parentOps)},
				{nil, nil, true, reverse(applyOps(parentOps))},
			},
		},
		"child merged with parent": {
			pre:   parentOps,
			child: childOps,
			queries: []rangeQuery{
				{nil, nil, false, both},
				{both[5].Key, nil, false, both[5:]},
				{nil, both[12].Key, false, both[:12]},
				{both[3].Key, both[17].Key, false, both[3:17]},

				{nil, nil, true, reverse(both)},
				{both[10].Key, nil, true, reverse(both[10:])},
				{nil, both[6].Key, true, reverse(both[:6])},
				{both[2].Key, both[19].Key, true, reverse(both[2:19])},

				// a deleted key as a bound
				{walletKey(3), walletKey(8), false, applyOps(makeSetOps(walletModels(4, 8, "p")...),
					[]Op{SetOp(walletKey(4), []byte("c4")), SetOp(walletKey(6), []byte("c6"))})},
			},
		},
		"everything below a key deleted": {
			pre:   makeSetOps(walletModels(0, 3, "p")...),
			child: []Op{DelOp(walletKey(0)), DelOp(walletKey(1))},
			queries: []rangeQuery{
				{nil, nil, false, walletModels(2, 3, "p")},
				{nil, walletKey(2), false, nil},
				{nil, walletKey(2), true, nil},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// InstanceIsolation checks that instances sharing one transaction only see
// their own storage through a PrefixStore, and that their records land
// under the instance prefix of the base store.
func (s *TestSuite) InstanceIsolation(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	const stateKey = "escrow"
	assert.Nil(t, base.Set(walletKey(1), []byte("1000ucosm")))

	call := base.CacheWrap()
	first := NewPrefixStore(call, instancePrefix(1))
	second := NewPrefixStore(call, instancePrefix(2))

	assert.Nil(t, first.Set([]byte(stateKey), []byte("first")))
	s.AssertGetHas(t, second, []byte(stateKey), nil, false)
	assert.Nil(t, second.Set([]byte(stateKey), []byte("second")))
	s.AssertGetHas(t, first, []byte(stateKey), []byte("first"), true)

	// iteration stays inside the instance and strips the prefix
	it, err := first.Iterator(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, []Model{Pair([]byte(stateKey), []byte("first"))}, collect(t, it))
	it, err = second.ReverseIterator(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, []Model{Pair([]byte(stateKey), []byte("second"))}, collect(t, it))

	// nothing reaches the base before the call succeeds
	firstKey := append(instancePrefix(1), stateKey...)
	s.AssertGetHas(t, base, firstKey, nil, false)
	assert.Nil(t, call.Write())
	s.AssertGetHas(t, base, firstKey, []byte("first"), true)
	s.AssertGetHas(t, base, append(instancePrefix(2), stateKey...), []byte("second"), true)
	s.AssertGetHas(t, base, walletKey(1), []byte("1000ucosm"), true)

	// a failed call does not touch the stored record
	failed := base.CacheWrap()
	assert.Nil(t, NewPrefixStore(failed, instancePrefix(1)).Delete([]byte(stateKey)))
	failed.Discard()
	s.AssertGetHas(t, NewPrefixStore(base, instancePrefix(1)), []byte(stateKey), []byte("first"), true)
}

func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func walletKey(i int) []byte {
	return []byte(fmt.Sprintf("wallet:%04d", i))
}

// walletModels returns wallets [from, to) with values tagged by tag.
func walletModels(from, to int, tag string) []Model {
	var res []Model
	for i := from; i < to; i++ {
		res = append(res, Pair(walletKey(i), []byte(fmt.Sprintf("%s%d", tag, i))))
	}
	return res
}

// instancePrefix mirrors the layout the runtime uses for contract storage.
func instancePrefix(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return append(append([]byte("_c."), key...), ':')
}

// applyOps returns the sorted content of an empty store after ops.
func applyOps(ops ...[]Op) []Model {
	state := make(map[string][]byte)
	for _, batch := range ops {
		for _, op := range batch {
			if op.IsSet() {
				state[string(op.Key())] = op.Value()
			} else {
				delete(state, string(op.Key()))
			}
		}
	}
	res := make([]Model, 0, len(state))
	for k, v := range state {
		res = append(res, Pair([]byte(k), v))
	}
	return sortModels(res)
}

func collect(t testing.TB, it Iterator) []Model {
	t.Helper()
	defer it.Close()
	var res []Model
	for ; it.Valid(); assert.Nil(t, it.Next()) {
		res = append(res, Pair(it.Key(), it.Value()))
	}
	return res
}

// iterCase is a test case for iteration
type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

func (i iterCase) verify(t testing.TB, base CacheableKVStore) {
	for _, op := range i.pre {
		assert.Nil(t, op.Apply(base))
	}

	child := base.CacheWrap()
	for _, op := range i.child {
		assert.Nil(t, op.Apply(child))
	}

	for _, q := range i.queries {
		var iter Iterator
		var err error
		if q.reverse {
			iter, err = child.ReverseIterator(q.start, q.end)
		} else {
			iter, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		got := collect(t, iter)
		if len(got) != len(q.expected) {
			t.Fatalf("want %d items, got %d", len(q.expected), len(got))
		}
		for n := range got {
			if !bytes.Equal(q.expected[n].Key, got[n].Key) {
				t.Fatalf("want key %q at %d, got %q", q.expected[n].Key, n, got[n].Key)
			}
			assert.Equal(t, q.expected[n].Value, got[n].Value)
		}
	}
}

// rangeQuery checks the results of iteration
type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

// reverse returns a copy of the slice with elements in reverse order
func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

// sortModels returns a copy of the models sorted by key
func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}
