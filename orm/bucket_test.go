package orm

import (
	"testing"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
)

func TestBucketSaveGetDelete(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter)))

	obj, err := b.Get(db, []byte("a"))
	assert.Nil(t, err)
	assert.Nil(t, obj)

	assert.Nil(t, b.Save(db, newCounterObj("a", "alice", 5)))
	obj, err = b.Get(db, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("a"), obj.Key())
	assert.Equal(t, int64(5), counterOf(obj).Count)

	has, err := b.Has(db, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, true, has)

	// the raw value lives under the prefixed key
	raw, err := db.Get([]byte("cnts:a"))
	assert.Nil(t, err)
	if len(raw) == 0 {
		t.Fatal("value not stored under prefixed key")
	}

	assert.Nil(t, b.Delete(db, []byte("a")))
	obj, err = b.Get(db, []byte("a"))
	assert.Nil(t, err)
	assert.Nil(t, obj)
}

func TestBucketSaveValidates(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter)))

	cases := map[string]struct {
		obj     Object
		wantErr *errors.Error
	}{
		"missing key":   {obj: newCounterObj("", "alice", 1), wantErr: errors.ErrEmpty},
		"missing value": {obj: NewSimpleObj([]byte("k"), nil), wantErr: errors.ErrEmpty},
		"invalid value": {obj: newCounterObj("k", "alice", -1), wantErr: errors.ErrInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, b.Save(db, tc.obj))
		})
	}
}

func TestBucketParseCorrupted(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter)))
	assert.Nil(t, db.Set(b.DBKey([]byte("bad")), []byte{0xff, 0xff, 0xff}))

	_, err := b.Get(db, []byte("bad"))
	assert.IsErr(t, errors.ErrModel, err)
}

func TestBucketAll(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter)))
	other := NewBucket("cntsx", NewSimpleObj(nil, new(Counter)))

	assert.Nil(t, b.Save(db, newCounterObj("b", "bob", 2)))
	assert.Nil(t, b.Save(db, newCounterObj("a", "alice", 1)))
	assert.Nil(t, other.Save(db, newCounterObj("c", "carol", 3)))
	_, err := b.Sequence(SeqID).NextInt(db)
	assert.Nil(t, err)

	all, err := b.All(db)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(all))
	assert.Equal(t, []byte("a"), all[0].Key())
	assert.Equal(t, []byte("b"), all[1].Key())
}

func TestBucketNamePanics(t *testing.T) {
	assert.Panics(t, func() { NewBucket("a", NewSimpleObj(nil, new(Counter))) })
	assert.Panics(t, func() { NewBucket("With Space", NewSimpleObj(nil, new(Counter))) })
}
