package main

import (
	"bytes"
	"testing"

	"hatchnet/storage"
	"hatchnet/storage/trie"
)

func TestCommitAdvancesPersistedGeneration(t *testing.T) {
	db := storage.NewMemDB()
	tr, err := trie.NewTrie(db, nil)
	if err != nil {
		t.Fatalf("open trie: %v", err)
	}

	if gen, err := loadGeneration(db); err != nil || gen != 0 {
		t.Fatalf("fresh generation: got %d, %v", gen, err)
	}

	if err := tr.Update([]byte("alpha"), []byte("one")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := commit(db, tr); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if gen, err := loadGeneration(db); err != nil || gen != 1 {
		t.Fatalf("generation after first commit: got %d, %v", gen, err)
	}

	if err := tr.Update([]byte("beta"), []byte("two")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := commit(db, tr); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if gen, err := loadGeneration(db); err != nil || gen != 2 {
		t.Fatalf("generation after second commit: got %d, %v", gen, err)
	}

	root, err := loadStateRoot(db)
	if err != nil {
		t.Fatalf("load state root: %v", err)
	}
	if !bytes.Equal(root, tr.Root().Bytes()) {
		t.Fatalf("persisted root %x does not match trie root %x", root, tr.Root().Bytes())
	}
}
