package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/core/types"
	"hatchnet/storage"
)

func TestJournalReplaysInEmissionOrder(t *testing.T) {
	kv := storage.NewMemKV()
	journal, err := NewJournal(kv)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	journal.Emit(HatchClaimed{Claimant: alice, Amount: big.NewInt(1000), TotalClaimed: big.NewInt(1000), Cycle: 1, UnlockTime: 2000})
	journal.Emit(StakeDeposited{Owner: alice, Amount: big.NewInt(500), StakedAt: 100, Total: big.NewInt(500)})
	journal.Emit(StakeWithdrawn{Owner: alice, Amount: big.NewInt(500), StakedAt: 100, Operation: StakeOperationWithdraw})

	var replayed []types.Event
	err = journal.Replay(func(evt types.Event) bool {
		replayed = append(replayed, evt)
		return true
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	want := []string{TypeHatchClaimed, TypeStakeDeposited, TypeStakeWithdrawn}
	if len(replayed) != len(want) {
		t.Fatalf("replayed events: got %d want %d", len(replayed), len(want))
	}
	for i, evt := range replayed {
		if evt.Type != want[i] {
			t.Fatalf("event %d: got %q want %q", i, evt.Type, want[i])
		}
	}
	if replayed[0].Attributes["claimant"] == "" {
		t.Fatalf("claim event lost attributes: %+v", replayed[0])
	}
}

func TestJournalResumesSequenceAcrossReopen(t *testing.T) {
	kv := storage.NewMemKV()
	journal, err := NewJournal(kv)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	journal.Emit(StakeDeposited{Owner: alice, Amount: big.NewInt(1), StakedAt: 1})
	journal.Emit(StakeDeposited{Owner: alice, Amount: big.NewInt(2), StakedAt: 2})

	reopened, err := NewJournal(kv)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	reopened.Emit(StakeDeposited{Owner: alice, Amount: big.NewInt(3), StakedAt: 3})

	var amounts []string
	err = reopened.Replay(func(evt types.Event) bool {
		amounts = append(amounts, evt.Attributes["amount"])
		return true
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(amounts) != 3 {
		t.Fatalf("replayed events: got %d want 3 (reopen must not overwrite)", len(amounts))
	}
}

func TestJournalReplayStopsEarly(t *testing.T) {
	kv := storage.NewMemKV()
	journal, err := NewJournal(kv)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	for i := int64(1); i <= 5; i++ {
		journal.Emit(StakeDeposited{Owner: alice, Amount: big.NewInt(i), StakedAt: i})
	}

	seen := 0
	err = journal.Replay(func(types.Event) bool {
		seen++
		return seen < 2
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if seen != 2 {
		t.Fatalf("replay visits: got %d want 2", seen)
	}
}
