package storage

import (
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KVStore is a minimal key-value surface for sidecar data that lives outside
// the state trie, such as the event journal.
type KVStore interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
	Close()
}

type MemKV struct {
	mu   sync.RWMutex
	data map[string][]byte
	keys []string
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (kv *MemKV) Put(key []byte, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	k := string(key)
	if _, ok := kv.data[k]; !ok {
		kv.keys = append(kv.keys, k)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	kv.data[k] = buf
	return nil
}

func (kv *MemKV) Get(key []byte) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	value, ok := kv.data[string(key)]
	if !ok {
		return nil, fmt.Errorf("key not found")
	}
	return value, nil
}

// Iterate walks entries with the given prefix in insertion order. The
// callback returns false to stop early.
func (kv *MemKV) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	p := string(prefix)
	for _, k := range kv.keys {
		if len(k) < len(p) || k[:len(p)] != p {
			continue
		}
		if !fn([]byte(k), kv.data[k]) {
			break
		}
	}
	return nil
}

func (kv *MemKV) Close() {}

// LevelKV is a persistent KVStore backed by a standalone LevelDB directory.
type LevelKV struct {
	db *leveldb.DB
}

func NewLevelKV(path string) (*LevelKV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelKV{db: db}, nil
}

func (kv *LevelKV) Put(key []byte, value []byte) error {
	return kv.db.Put(key, value, nil)
}

func (kv *LevelKV) Get(key []byte) ([]byte, error) {
	return kv.db.Get(key, nil)
}

func (kv *LevelKV) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	iter := kv.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

func (kv *LevelKV) Close() {
	kv.db.Close()
}
