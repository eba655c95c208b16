package iavl

import (
	"crypto/rand"
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
	dbm "github.com/tendermint/tendermint/libs/db"
)

func makeCommitStore(t testing.TB) (*CommitStore, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "iavl-store-")
	if err != nil {
		t.Fatalf("cannot create temporary directory: %s", err)
	}
	commit, err := NewCommitStore(dbm.GoLevelDBBackend, dir, "base", 1000)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("cannot open store: %+v", err)
	}
	return commit, func() {
		commit.Close()
		os.RemoveAll(dir)
	}
}

func suite(t *testing.T) *store.TestSuite {
	return store.NewTestSuite(func() (store.CacheableKVStore, func()) {
		commit, cleanup := makeCommitStore(t)
		return store.BTreeCacheable{KVStore: commit.Adapter()}, cleanup
	})
}

func TestIavlTransaction(t *testing.T)       { suite(t).Transaction(t) }
func TestIavlOverlay(t *testing.T)           { suite(t).Overlay(t) }
func TestIavlIteration(t *testing.T)         { suite(t).Iteration(t) }
func TestIavlInstanceIsolation(t *testing.T) { suite(t).InstanceIsolation(t) }

func assertGetHas(t testing.TB, kv htlc.ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// TestCommitOverwrite checks that commits are versioned and that a later
// cache wrap can overwrite and delete committed data.
func TestCommitOverwrite(t *testing.T) {
	k1, k2, k3 := randBytes(16), randBytes(16), randBytes(16)
	v1, v2, v3 := randBytes(40), randBytes(40), randBytes(40)

	commit, cleanup := makeCommitStore(t)
	defer cleanup()

	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)
	if len(id.Hash) != 0 {
		t.Fatal("hash is not empty")
	}

	parent := commit.CacheWrap()
	assert.Nil(t, parent.Set(k1, v1))
	assert.Nil(t, parent.Set(k2, v2))
	assert.Nil(t, parent.Write())
	id, err = commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)
	if len(id.Hash) == 0 {
		t.Fatal("hash is empty")
	}

	child := commit.CacheWrap()
	assert.Nil(t, child.Set(k1, v3))
	assert.Nil(t, child.Set(k3, v3))
	assert.Nil(t, child.Delete(k2))

	side := commit.CacheWrap()
	assertGetHas(t, side, k1, v1, true)
	assertGetHas(t, side, k2, v2, true)
	assertGetHas(t, side, k3, nil, false)

	assertGetHas(t, child, k1, v3, true)
	assertGetHas(t, child, k2, nil, false)
	assertGetHas(t, child, k3, v3, true)

	assert.Nil(t, child.Write())
	assertGetHas(t, side, k1, v3, true)
	assertGetHas(t, side, k2, nil, false)

	// committed view only moves on Commit
	got, err := commit.Get(k1)
	assert.Nil(t, err)
	assert.Equal(t, v1, got)

	id, err = commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), id.Version)

	got, err = commit.Get(k1)
	assert.Nil(t, err)
	assert.Equal(t, v3, got)
}

func TestCommitPruning(t *testing.T) {
	commit := MemCommitStore()
	commit.numHistory = 2
	key := []byte("counter")

	for i := byte(1); i <= 5; i++ {
		c := commit.CacheWrap()
		assert.Nil(t, c.Set(key, []byte{i}))
		assert.Nil(t, c.Write())
		id, err := commit.Commit()
		assert.Nil(t, err)
		assert.Equal(t, int64(i), id.Version)
	}

	if commit.tree.VersionExists(2) {
		t.Fatal("version 2 should be pruned")
	}
	if !commit.tree.VersionExists(4) {
		t.Fatal("version 4 should be kept")
	}
}

func TestReopenLoadsLatestVersion(t *testing.T) {
	dir, err := ioutil.TempDir("", "iavl-reopen-")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	first, err := NewCommitStore(dbm.GoLevelDBBackend, dir, "state", 100)
	assert.Nil(t, err)
	c := first.CacheWrap()
	assert.Nil(t, c.Set([]byte("k"), []byte("v")))
	assert.Nil(t, c.Write())
	want, err := first.Commit()
	assert.Nil(t, err)
	first.Close()

	second, err := NewCommitStore(dbm.GoLevelDBBackend, dir, "state", 100)
	assert.Nil(t, err)
	defer second.Close()

	got, err := second.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, want, got)
	assertGetHas(t, second.CacheWrap(), []byte("k"), []byte("v"), true)
}
