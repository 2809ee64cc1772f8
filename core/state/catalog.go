package state

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ProductPrice returns the catalog price for the product. A zero price means
// the product does not exist; the sentinel is deliberate and a real product
// can never be priced at zero.
func (m *Manager) ProductPrice(productID string) (*big.Int, error) {
	if m == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return nil, fmt.Errorf("state: product id required")
	}
	data, err := m.trie.Get(prefixedKey(productPrefix, []byte(id)))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	price := new(big.Int)
	if err := rlp.DecodeBytes(data, price); err != nil {
		return nil, err
	}
	return price, nil
}

// SetProductPrice stores the catalog price for the product. Writing zero
// erases the entry, matching the zero-price-as-nonexistence sentinel.
func (m *Manager) SetProductPrice(productID string, price *big.Int) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return fmt.Errorf("state: product id required")
	}
	if price == nil || price.Sign() < 0 {
		return fmt.Errorf("state: product price must be non-negative")
	}
	key := prefixedKey(productPrefix, []byte(id))
	if price.Sign() == 0 {
		return m.trie.Update(key, nil)
	}
	encoded, err := rlp.EncodeToBytes(price)
	if err != nil {
		return err
	}
	return m.trie.Update(key, encoded)
}

// Treasury returns the address receiving purchase settlements. It is the
// zero address until configured.
func (m *Manager) Treasury() (common.Address, error) {
	if m == nil {
		return common.Address{}, fmt.Errorf("state manager unavailable")
	}
	data, err := m.trie.Get(treasuryKey)
	if err != nil {
		return common.Address{}, err
	}
	if len(data) == 0 {
		return common.Address{}, nil
	}
	return common.BytesToAddress(data), nil
}

// SetTreasury stores the purchase settlement address.
func (m *Manager) SetTreasury(addr common.Address) error {
	if m == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if addr == (common.Address{}) {
		return fmt.Errorf("state: treasury address required")
	}
	return m.trie.Update(treasuryKey, addr.Bytes())
}
