package orm

import (
	"testing"

	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
)

func byOwner(obj Object) ([]byte, error) {
	return counterOf(obj).Owner, nil
}

func keysOf(objs []Object) []string {
	res := make([]string, len(objs))
	for i, o := range objs {
		res[i] = string(o.Key())
	}
	return res
}

func TestMultiIndex(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter))).
		WithIndex("owner", byOwner, false)

	assert.Nil(t, b.Save(db, newCounterObj("k1", "alice", 1)))
	assert.Nil(t, b.Save(db, newCounterObj("k2", "alice", 2)))
	assert.Nil(t, b.Save(db, newCounterObj("k3", "al", 3)))

	objs, err := b.GetIndexed(db, "owner", []byte("alice"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"k1", "k2"}, keysOf(objs))

	// "al" is a prefix of "alice" but a different index key
	objs, err = b.GetIndexed(db, "owner", []byte("al"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"k3"}, keysOf(objs))

	// moving k2 to a new owner updates both entries
	assert.Nil(t, b.Save(db, newCounterObj("k2", "bob", 2)))
	objs, err = b.GetIndexed(db, "owner", []byte("alice"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"k1"}, keysOf(objs))

	assert.Nil(t, b.Delete(db, []byte("k1")))
	objs, err = b.GetIndexed(db, "owner", []byte("alice"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(objs))

	_, err = b.GetIndexed(db, "missing", []byte("alice"))
	assert.IsErr(t, ErrInvalidIndex, err)
}

func TestUniqueIndex(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter))).
		WithIndex("owner", byOwner, true)

	assert.Nil(t, b.Save(db, newCounterObj("k1", "alice", 1)))
	// saving the same key again is an update, not a conflict
	assert.Nil(t, b.Save(db, newCounterObj("k1", "alice", 7)))
	assert.IsErr(t, ErrUniqueConstraint, b.Save(db, newCounterObj("k2", "alice", 1)))
}

func TestIndexRegisteredTwice(t *testing.T) {
	b := NewBucket("cnts", NewSimpleObj(nil, new(Counter))).
		WithIndex("owner", byOwner, false)
	assert.Panics(t, func() { b.WithIndex("owner", byOwner, true) })
}
