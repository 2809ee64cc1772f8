package storage

import (
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/pebble"
	"github.com/ethereum/go-ethereum/triedb"
)

// Database is the backing store for ledger state. It exposes a plain
// key-value surface for metadata alongside the trie database used by the
// state trie.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	TrieDB() *triedb.Database
	Close()
}

// --- In-memory database (tests, simulation runs) ---

type MemDB struct {
	disk   ethdb.Database
	trieDB *triedb.Database
}

func NewMemDB() *MemDB {
	disk := rawdb.NewMemoryDatabase()
	return &MemDB{
		disk:   disk,
		trieDB: triedb.NewDatabase(disk, nil),
	}
}

func (db *MemDB) Put(key []byte, value []byte) error { return db.disk.Put(key, value) }

func (db *MemDB) Get(key []byte) ([]byte, error) { return db.disk.Get(key) }

func (db *MemDB) Has(key []byte) (bool, error) { return db.disk.Has(key) }

func (db *MemDB) TrieDB() *triedb.Database { return db.trieDB }

func (db *MemDB) Close() {
	db.disk.Close()
}

// --- Persistent database ---

// DiskDB stores the trie and metadata in a pebble directory on disk.
type DiskDB struct {
	disk   ethdb.Database
	trieDB *triedb.Database
}

// NewDiskDB creates or opens a pebble database at the specified path.
func NewDiskDB(path string) (*DiskDB, error) {
	kv, err := pebble.New(path, 128, 512, "hatchnet", false)
	if err != nil {
		return nil, err
	}
	disk := rawdb.NewDatabase(kv)
	return &DiskDB{
		disk:   disk,
		trieDB: triedb.NewDatabase(disk, nil),
	}, nil
}

func (db *DiskDB) Put(key []byte, value []byte) error { return db.disk.Put(key, value) }

func (db *DiskDB) Get(key []byte) ([]byte, error) { return db.disk.Get(key) }

func (db *DiskDB) Has(key []byte) (bool, error) { return db.disk.Has(key) }

func (db *DiskDB) TrieDB() *triedb.Database { return db.trieDB }

func (db *DiskDB) Close() {
	db.disk.Close()
}
