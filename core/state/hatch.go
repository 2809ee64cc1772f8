package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"hatchnet/native/hatch"
)

type storedHatchConfig struct {
	MerkleRoot    [32]byte
	UnlockDelay   uint64
	MintStart     uint64
	CycleDuration uint64
	CycleMintBps  uint32
}

// HatchConfig loads the claim/vesting configuration. The boolean reports
// whether a configuration has been installed.
func (m *Manager) HatchConfig() (hatch.Config, bool, error) {
	if m == nil {
		return hatch.Config{}, false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(hatchConfigKey)
	if err != nil {
		return hatch.Config{}, false, err
	}
	if len(data) == 0 {
		return hatch.Config{}, false, nil
	}
	var stored storedHatchConfig
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return hatch.Config{}, false, err
	}
	return hatch.Config{
		MerkleRoot:  common.Hash(stored.MerkleRoot),
		UnlockDelay: int64(stored.UnlockDelay),
		Cycle: hatch.CycleConfig{
			MintStart:     int64(stored.MintStart),
			CycleDuration: int64(stored.CycleDuration),
			CycleMintBps:  stored.CycleMintBps,
		},
	}, true, nil
}

// SetHatchConfig persists the claim/vesting configuration.
func (m *Manager) SetHatchConfig(cfg hatch.Config) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(&storedHatchConfig{
		MerkleRoot:    [32]byte(cfg.MerkleRoot),
		UnlockDelay:   uint64(cfg.UnlockDelay),
		MintStart:     uint64(cfg.Cycle.MintStart),
		CycleDuration: uint64(cfg.Cycle.CycleDuration),
		CycleMintBps:  cfg.Cycle.CycleMintBps,
	})
	if err != nil {
		return err
	}
	return m.trie.Update(hatchConfigKey, encoded)
}

// TotalClaimed returns the cumulative claimed amount recorded for the
// claimant. Missing records default to zero.
func (m *Manager) TotalClaimed(claimant common.Address) (*big.Int, error) {
	if m == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(prefixedKey(claimRecordPrefix, claimant.Bytes()))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	total := new(big.Int)
	if err := rlp.DecodeBytes(data, total); err != nil {
		return nil, err
	}
	return total, nil
}

// SetTotalClaimed records the cumulative claimed amount for the claimant.
// The record is monotonically non-decreasing.
func (m *Manager) SetTotalClaimed(claimant common.Address, total *big.Int) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if total == nil || total.Sign() < 0 {
		return fmt.Errorf("state: claimed total must be non-negative")
	}
	current, err := m.TotalClaimed(claimant)
	if err != nil {
		return err
	}
	if total.Cmp(current) < 0 {
		return fmt.Errorf("state: claimed total cannot decrease")
	}
	encoded, err := rlp.EncodeToBytes(total)
	if err != nil {
		return err
	}
	return m.trie.Update(prefixedKey(claimRecordPrefix, claimant.Bytes()), encoded)
}

type storedUnlockEntry struct {
	Amount     *big.Int
	UnlockTime uint64
}

// UnlockEntries returns the claimant's vesting entries in claim order.
func (m *Manager) UnlockEntries(claimant common.Address) ([]hatch.UnlockEntry, error) {
	if m == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(prefixedKey(unlockListPrefix, claimant.Bytes()))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var stored []storedUnlockEntry
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	entries := make([]hatch.UnlockEntry, 0, len(stored))
	for _, entry := range stored {
		amount := big.NewInt(0)
		if entry.Amount != nil {
			amount = new(big.Int).Set(entry.Amount)
		}
		entries = append(entries, hatch.UnlockEntry{Amount: amount, UnlockTime: int64(entry.UnlockTime)})
	}
	return entries, nil
}

// AppendUnlockEntry appends a vesting entry to the claimant's ledger.
// Entries are never merged or compacted.
func (m *Manager) AppendUnlockEntry(claimant common.Address, entry hatch.UnlockEntry) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if entry.Amount == nil || entry.Amount.Sign() <= 0 {
		return fmt.Errorf("state: unlock amount must be positive")
	}
	if entry.UnlockTime < 0 {
		return fmt.Errorf("state: unlock time must be non-negative")
	}
	existing, err := m.UnlockEntries(claimant)
	if err != nil {
		return err
	}
	stored := make([]storedUnlockEntry, 0, len(existing)+1)
	for _, current := range existing {
		stored = append(stored, storedUnlockEntry{Amount: current.Amount, UnlockTime: uint64(current.UnlockTime)})
	}
	stored = append(stored, storedUnlockEntry{Amount: new(big.Int).Set(entry.Amount), UnlockTime: uint64(entry.UnlockTime)})
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	return m.trie.Update(prefixedKey(unlockListPrefix, claimant.Bytes()), encoded)
}

// IsOperator reports whether the address is exempt from the transfer lock
// guard.
func (m *Manager) IsOperator(addr common.Address) (bool, error) {
	if m == nil {
		return false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(prefixedKey(operatorPrefix, addr.Bytes()))
	if err != nil {
		return false, err
	}
	return len(data) > 0 && data[0] == 0x01, nil
}

// SetOperator toggles the transfer-guard exemption for the address.
func (m *Manager) SetOperator(addr common.Address, allowed bool) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if addr == (common.Address{}) {
		return fmt.Errorf("state: operator address required")
	}
	value := []byte{0x00}
	if allowed {
		value = []byte{0x01}
	}
	return m.trie.Update(prefixedKey(operatorPrefix, addr.Bytes()), value)
}
