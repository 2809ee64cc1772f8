package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"hatchnet/native/staking"
)

type storedStakingConfig struct {
	StakeUnit          *big.Int
	MaxStakePerAccount *big.Int
	LockPeriod         uint64
}

// StakingConfig loads the staking parameters. The boolean reports whether
// they have been installed.
func (m *Manager) StakingConfig() (staking.Config, bool, error) {
	if m == nil {
		return staking.Config{}, false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(stakingConfigKey)
	if err != nil {
		return staking.Config{}, false, err
	}
	if len(data) == 0 {
		return staking.Config{}, false, nil
	}
	var stored storedStakingConfig
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return staking.Config{}, false, err
	}
	return staking.Config{
		StakeUnit:          stored.StakeUnit,
		MaxStakePerAccount: stored.MaxStakePerAccount,
		LockPeriod:         int64(stored.LockPeriod),
	}, true, nil
}

// SetStakingConfig persists the staking parameters.
func (m *Manager) SetStakingConfig(cfg staking.Config) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(&storedStakingConfig{
		StakeUnit:          cfg.StakeUnit,
		MaxStakePerAccount: cfg.MaxStakePerAccount,
		LockPeriod:         uint64(cfg.LockPeriod),
	})
	if err != nil {
		return err
	}
	return m.trie.Update(stakingConfigKey, encoded)
}

type storedStakeEntry struct {
	Amount   *big.Int
	StakedAt uint64
}

// StakeEntries returns the account's deposit queue, oldest first.
func (m *Manager) StakeEntries(owner common.Address) ([]staking.Entry, error) {
	if m == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(prefixedKey(stakeQueuePrefix, owner.Bytes()))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var stored []storedStakeEntry
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	entries := make([]staking.Entry, 0, len(stored))
	for _, entry := range stored {
		amount := big.NewInt(0)
		if entry.Amount != nil {
			amount = new(big.Int).Set(entry.Amount)
		}
		entries = append(entries, staking.Entry{Amount: amount, StakedAt: int64(entry.StakedAt)})
	}
	return entries, nil
}

// SetStakeEntries overwrites the account's deposit queue, preserving order.
func (m *Manager) SetStakeEntries(owner common.Address, entries []staking.Entry) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	stored := make([]storedStakeEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Amount == nil || entry.Amount.Sign() <= 0 {
			return fmt.Errorf("state: stake amount must be positive")
		}
		stored = append(stored, storedStakeEntry{Amount: entry.Amount, StakedAt: uint64(entry.StakedAt)})
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	return m.trie.Update(prefixedKey(stakeQueuePrefix, owner.Bytes()), encoded)
}
