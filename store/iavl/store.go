/*
Package iavl persists state in a versioned iavl merkle tree on top of a
tendermint database backend.
*/
package iavl

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultHistory is the number of committed versions kept on disk.
const DefaultHistory = 20

// CommitStore is the root store of the host. Cache wraps write into the
// working tree, Commit saves it as a new version.
type CommitStore struct {
	db         dbm.DB
	tree       *iavl.MutableTree
	numHistory int64
}

var _ htlc.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore opens (or creates) the named database in dir using the
// given backend and loads its latest version. Use dbm.MemDBBackend for an
// ephemeral store.
func NewCommitStore(backend dbm.DBBackendType, dir, name string, cacheSize int) (*CommitStore, error) {
	db, err := openDB(backend, dir, name)
	if err != nil {
		return nil, err
	}
	s := &CommitStore{
		db:         db,
		tree:       iavl.NewMutableTree(db, cacheSize),
		numHistory: DefaultHistory,
	}
	if err := s.LoadLatestVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MemCommitStore returns a CommitStore that lives in memory only.
func MemCommitStore() *CommitStore {
	db := dbm.NewMemDB()
	return &CommitStore{
		db:         db,
		tree:       iavl.NewMutableTree(db, 1000),
		numHistory: DefaultHistory,
	}
}

func openDB(backend dbm.DBBackendType, dir, name string) (db dbm.DB, err error) {
	// dbm.NewDB panics when the backend cannot be opened
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errors.ErrDatabase, "open %s/%s: %v", dir, name, r)
		}
	}()
	return dbm.NewDB(name, backend, dir), nil
}

// Close releases the underlying database.
func (s *CommitStore) Close() {
	s.db.Close()
}

// Get returns the value at the last committed version.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	if s.tree.Version() == 0 {
		return nil, nil
	}
	_, val := s.tree.GetVersioned(key, s.tree.Version())
	return val, nil
}

// Commit saves the working tree as the next version and prunes versions
// that fell out of the history window.
func (s *CommitStore) Commit() (htlc.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return htlc.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if old := version - s.numHistory; old > 0 && s.tree.VersionExists(old) {
		if err := s.tree.DeleteVersion(old); err != nil {
			return htlc.CommitID{}, errors.Wrapf(errors.ErrDatabase, "prune version %d: %s", old, err)
		}
	}
	return htlc.CommitID{Version: version, Hash: hash}, nil
}

// LoadLatestVersion loads the latest persisted version. An empty database
// is a valid, version zero state.
func (s *CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns the version and root hash of the last commit.
func (s *CommitStore) LatestVersion() (htlc.CommitID, error) {
	return htlc.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// CacheWrap returns a btree cache that writes into the working tree.
func (s *CommitStore) CacheWrap() htlc.KVCacheWrap {
	return store.BTreeCacheable{KVStore: s.Adapter()}.CacheWrap()
}

// Adapter exposes the working tree as a KVStore. Writes are visible to
// later reads immediately and persisted on Commit.
func (s *CommitStore) Adapter() htlc.KVStore {
	return adapter{tree: s.tree}
}

type adapter struct {
	tree *iavl.MutableTree
}

var _ htlc.KVStore = adapter{}

func (a adapter) Get(key []byte) ([]byte, error) {
	_, val := a.tree.Get(key)
	return val, nil
}

func (a adapter) Has(key []byte) (bool, error) {
	return a.tree.Has(key), nil
}

func (a adapter) Set(key, value []byte) error {
	a.tree.Set(key, value)
	return nil
}

func (a adapter) Delete(key []byte) error {
	a.tree.Remove(key)
	return nil
}

func (a adapter) NewBatch() htlc.Batch {
	return store.NewNonAtomicBatch(a)
}

func (a adapter) Iterator(start, end []byte) (htlc.Iterator, error) {
	return a.collect(start, end, true), nil
}

func (a adapter) ReverseIterator(start, end []byte) (htlc.Iterator, error) {
	return a.collect(start, end, false), nil
}

func (a adapter) collect(start, end []byte, ascending bool) htlc.Iterator {
	var res []htlc.Model
	a.tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		res = append(res, store.Pair(key, value))
		return false
	})
	return store.NewSliceIterator(res)
}
