package htlctest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/store/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// CommitKVStore returns a store instance that is using a filesystem backend
// engine to store the data.
// Use it instead of MemStore when a test needs the exact storage the
// command line host is using.
func CommitKVStore(t testing.TB) (htlc.CommitKVStore, func()) {
	t.Helper()
	dbpath, err := ioutil.TempDir("", "htlctest-")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}
	db, err := iavl.NewCommitStore(dbm.GoLevelDBBackend, dbpath, "db", 1000)
	if err != nil {
		os.RemoveAll(dbpath)
		t.Fatalf("cannot open store: %+v", err)
	}
	return db, func() {
		db.Close()
		os.RemoveAll(dbpath)
	}
}
