package hatch

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AllocationLeaf derives the merkle leaf for a (claimant, total allocation)
// pair. The encoded pair is hashed twice so a leaf can never collide with an
// interior node.
func AllocationLeaf(claimant common.Address, totalAllocation *big.Int) common.Hash {
	amount := make([]byte, 32)
	if totalAllocation != nil && totalAllocation.Sign() > 0 {
		totalAllocation.FillBytes(amount)
	}
	inner := ethcrypto.Keccak256(claimant.Bytes(), amount)
	return common.BytesToHash(ethcrypto.Keccak256(inner))
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(ethcrypto.Keccak256(a[:], b[:]))
}

// VerifyAllocation walks the sorted-pair merkle proof from the leaf derived
// for (claimant, totalAllocation) and reports whether it reproduces the root.
// Pure and deterministic; a false result is a hard rejection.
func VerifyAllocation(root common.Hash, claimant common.Address, totalAllocation *big.Int, proof []common.Hash) bool {
	if root == (common.Hash{}) {
		return false
	}
	if totalAllocation != nil && totalAllocation.BitLen() > 256 {
		return false
	}
	node := AllocationLeaf(claimant, totalAllocation)
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// Allocation is one committed (claimant, total allocation) pair.
type Allocation struct {
	Claimant common.Address
	Amount   *big.Int
}

// AllocationTree builds the commitment over a full allocation set and
// produces per-claimant proofs. Used by genesis tooling and tests; the
// ledger itself only ever verifies.
type AllocationTree struct {
	levels [][]common.Hash
	index  map[common.Hash]int
}

// NewAllocationTree constructs the tree. Leaves are sorted by hash; odd
// nodes are promoted to the next level unchanged. Duplicate claimants are
// rejected.
func NewAllocationTree(allocations []Allocation) (*AllocationTree, error) {
	if len(allocations) == 0 {
		return nil, ErrInvalidInput
	}
	seen := make(map[common.Address]struct{}, len(allocations))
	leaves := make([]common.Hash, 0, len(allocations))
	for _, alloc := range allocations {
		if alloc.Claimant == (common.Address{}) || alloc.Amount == nil || alloc.Amount.Sign() <= 0 || alloc.Amount.BitLen() > 256 {
			return nil, ErrInvalidInput
		}
		if _, dup := seen[alloc.Claimant]; dup {
			return nil, ErrInvalidInput
		}
		seen[alloc.Claimant] = struct{}{}
		leaves = append(leaves, AllocationLeaf(alloc.Claimant, alloc.Amount))
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})
	index := make(map[common.Hash]int, len(leaves))
	for i, leaf := range leaves {
		index[leaf] = i
	}

	levels := [][]common.Hash{leaves}
	for len(levels[len(levels)-1]) > 1 {
		current := levels[len(levels)-1]
		next := make([]common.Hash, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 < len(current) {
				next = append(next, hashPair(current[i], current[i+1]))
			} else {
				next = append(next, current[i])
			}
		}
		levels = append(levels, next)
	}
	return &AllocationTree{levels: levels, index: index}, nil
}

// Root returns the tree commitment.
func (t *AllocationTree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the sibling path for the given pair. The pair must match the
// committed allocation exactly.
func (t *AllocationTree) Proof(claimant common.Address, totalAllocation *big.Int) ([]common.Hash, error) {
	if totalAllocation == nil || totalAllocation.BitLen() > 256 {
		return nil, ErrInvalidProof
	}
	pos, ok := t.index[AllocationLeaf(claimant, totalAllocation)]
	if !ok {
		return nil, ErrInvalidProof
	}
	proof := make([]common.Hash, 0, len(t.levels))
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, nil
}
