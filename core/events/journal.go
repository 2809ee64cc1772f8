package events

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"hatchnet/core/types"
	"hatchnet/storage"
)

var journalPrefix = []byte("events/")

// Renderable is implemented by event payloads that can be flattened into a
// broadcastable types.Event.
type Renderable interface {
	Event() *types.Event
}

// Journal persists rendered events to a key-value store in emission order so
// off-chain observers can replay them after the fact. It satisfies the
// Emitter interface and silently skips payloads that cannot be rendered.
type Journal struct {
	mu  sync.Mutex
	kv  storage.KVStore
	seq uint64
}

// NewJournal opens a journal over the provided store, resuming the sequence
// counter after any previously written entries.
func NewJournal(kv storage.KVStore) (*Journal, error) {
	j := &Journal{kv: kv}
	err := kv.Iterate(journalPrefix, func(key, _ []byte) bool {
		j.seq++
		return true
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

// Emit implements the Emitter interface.
func (j *Journal) Emit(evt Event) {
	if j == nil || evt == nil {
		return
	}
	renderable, ok := evt.(Renderable)
	if !ok {
		return
	}
	rendered := renderable.Event()
	if rendered == nil {
		return
	}
	encoded, err := json.Marshal(rendered)
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	key := make([]byte, len(journalPrefix)+8)
	copy(key, journalPrefix)
	binary.BigEndian.PutUint64(key[len(journalPrefix):], j.seq)
	if err := j.kv.Put(key, encoded); err != nil {
		return
	}
	j.seq++
}

// Replay invokes fn for every journaled event in emission order.
func (j *Journal) Replay(fn func(types.Event) bool) error {
	if j == nil {
		return nil
	}
	return j.kv.Iterate(journalPrefix, func(_, value []byte) bool {
		var evt types.Event
		if err := json.Unmarshal(value, &evt); err != nil {
			return true
		}
		return fn(evt)
	})
}
