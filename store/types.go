package store

import "github.com/iov-one/htlc"

// Aliases keep the storage vocabulary short inside this package and its
// tests.

type (
	ReadOnlyKVStore  = htlc.ReadOnlyKVStore
	SetDeleter       = htlc.SetDeleter
	KVStore          = htlc.KVStore
	Batch            = htlc.Batch
	Iterator         = htlc.Iterator
	CacheableKVStore = htlc.CacheableKVStore
	KVCacheWrap      = htlc.KVCacheWrap
	CommitKVStore    = htlc.CommitKVStore
	CommitID         = htlc.CommitID
	Model            = htlc.Model
)

// Pair constructs a model from a key and a value.
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}
