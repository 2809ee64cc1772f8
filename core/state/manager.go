package state

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"hatchnet/storage/trie"
)

// Manager reads and writes ledger state on the backing trie. It persists
// token balances, supply totals, module configuration, and the per-account
// ledgers used by the hatch, staking, and store engines.
//
// Manager is not safe for concurrent use; callers rely on the single-writer
// execution model.
type Manager struct {
	trie *trie.Trie
}

// NewManager creates a state manager operating on the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Trie exposes the underlying trie for commit/rollback orchestration.
func (m *Manager) Trie() *trie.Trie {
	return m.trie
}

func normalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return "", fmt.Errorf("state: token symbol required")
	}
	return normalized, nil
}

func balanceKey(symbol string, addr common.Address) []byte {
	buf := make([]byte, 0, len(balancePrefix)+len(symbol)+1+common.AddressLength)
	buf = append(buf, balancePrefix...)
	buf = append(buf, symbol...)
	buf = append(buf, ':')
	buf = append(buf, addr.Bytes()...)
	return prefixedKey(nil, buf)
}

// Balance returns the token balance for the address. Missing entries default
// to zero.
func (m *Manager) Balance(symbol string, addr common.Address) (*big.Int, error) {
	if m == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	data, err := m.trie.Get(balanceKey(normalized, addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(data, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// SetBalance overwrites the token balance for the address. Negative balances
// are rejected.
func (m *Manager) SetBalance(symbol string, addr common.Address, amount *big.Int) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: %s balance cannot be negative", normalized)
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.trie.Update(balanceKey(normalized, addr), encoded)
}

func tokenSupplyKey(symbol string) []byte {
	return prefixedKey(tokenSupplyPrefix, []byte(symbol))
}

// TokenSupply returns the persisted total supply for the token. Missing
// entries default to zero.
func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	if m == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	data, err := m.trie.Get(tokenSupplyKey(normalized))
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

// SetTokenSupply overwrites the stored total supply for the token.
func (m *Manager) SetTokenSupply(symbol string, amount *big.Int) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: token %s supply cannot be negative", normalized)
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.trie.Update(tokenSupplyKey(normalized), encoded)
}

// Owner returns the configured admin owner address. It is the zero address
// until genesis initialisation.
func (m *Manager) Owner() (common.Address, error) {
	if m == nil {
		return common.Address{}, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(ownerKey)
	if err != nil {
		return common.Address{}, err
	}
	if len(data) == 0 {
		return common.Address{}, nil
	}
	return common.BytesToAddress(data), nil
}

// SetOwner stores the admin owner address.
func (m *Manager) SetOwner(addr common.Address) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if addr == (common.Address{}) {
		return fmt.Errorf("state: owner address required")
	}
	return m.trie.Update(ownerKey, addr.Bytes())
}

// GenesisInitialized reports whether genesis bootstrap has already run.
func (m *Manager) GenesisInitialized() (bool, error) {
	if m == nil {
		return false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(genesisMarkerKey)
	if err != nil {
		return false, err
	}
	return len(data) > 0, nil
}

// MarkGenesisInitialized records that genesis bootstrap completed.
func (m *Manager) MarkGenesisInitialized() error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	return m.trie.Update(genesisMarkerKey, []byte{0x01})
}

// ParamStoreGet loads a raw parameter payload by name.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(prefixedKey(paramPrefix, []byte(name)))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// ParamStoreSet stores a raw parameter payload by name.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("state: parameter name required")
	}
	return m.trie.Update(prefixedKey(paramPrefix, []byte(name)), value)
}
