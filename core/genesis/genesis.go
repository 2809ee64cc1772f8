package genesis

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"hatchnet/config"
	"hatchnet/core/state"
	"hatchnet/native/hatch"
	"hatchnet/native/staking"
)

// ErrAlreadyInitialized signals that genesis bootstrap has already run for
// this state; a second initialisation must never overwrite a live ledger.
var ErrAlreadyInitialized = errors.New("genesis: already initialized")

// Init applies the genesis configuration to a fresh state: owner, hatch
// claim parameters, staking parameters, store treasury, and payment-token
// premines. A MintStartTime of zero resolves to the boot timestamp.
func Init(manager *state.Manager, cfg config.Genesis, now int64) error {
	if manager == nil {
		return fmt.Errorf("genesis: state manager required")
	}
	initialized, err := manager.GenesisInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}

	owner, err := parseAddress(cfg.Owner, "Genesis.Owner")
	if err != nil {
		return err
	}
	root, err := parseHash(cfg.AllocationRoot, "Genesis.AllocationRoot")
	if err != nil {
		return err
	}
	mintStart := cfg.MintStartTime
	if mintStart == 0 {
		mintStart = now
	}

	if err := manager.SetOwner(owner); err != nil {
		return err
	}
	if err := manager.SetHatchConfig(hatch.Config{
		MerkleRoot:  root,
		UnlockDelay: cfg.TokenUnlockSeconds,
		Cycle: hatch.CycleConfig{
			MintStart:     mintStart,
			CycleDuration: cfg.CycleDurationSeconds,
			CycleMintBps:  cfg.CycleMintBps,
		},
	}); err != nil {
		return err
	}

	stakeUnit, err := parseAmount(cfg.StakeUnit, "Genesis.StakeUnit")
	if err != nil {
		return err
	}
	maxStake, err := parseAmount(cfg.MaxStakePerAccount, "Genesis.MaxStakePerAccount")
	if err != nil {
		return err
	}
	if err := manager.SetStakingConfig(staking.Config{
		StakeUnit:          stakeUnit,
		MaxStakePerAccount: maxStake,
		LockPeriod:         cfg.StakeLockSeconds,
	}); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.StoreTreasury) != "" {
		treasury, err := parseAddress(cfg.StoreTreasury, "Genesis.StoreTreasury")
		if err != nil {
			return err
		}
		if err := manager.SetTreasury(treasury); err != nil {
			return err
		}
	}

	for i, premine := range cfg.Premine {
		addr, err := parseAddress(premine.Address, fmt.Sprintf("Genesis.Premine[%d].Address", i))
		if err != nil {
			return err
		}
		amount, err := parseAmount(premine.Amount, fmt.Sprintf("Genesis.Premine[%d].Amount", i))
		if err != nil {
			return err
		}
		token := strings.ToUpper(strings.TrimSpace(premine.Token))
		if token == "" {
			return fmt.Errorf("genesis: Genesis.Premine[%d].Token required", i)
		}
		if token == hatch.TokenSymbol {
			return fmt.Errorf("genesis: %s cannot be premined, supply is claim-gated", hatch.TokenSymbol)
		}
		balance, err := manager.Balance(token, addr)
		if err != nil {
			return err
		}
		if err := manager.SetBalance(token, addr, balance.Add(balance, amount)); err != nil {
			return err
		}
		supply, err := manager.TokenSupply(token)
		if err != nil {
			return err
		}
		if err := manager.SetTokenSupply(token, supply.Add(supply, amount)); err != nil {
			return err
		}
	}

	return manager.MarkGenesisInitialized()
}

func parseAddress(value, field string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("genesis: %s must be a hex address", field)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("genesis: %s cannot be the zero address", field)
	}
	return addr, nil
}

func parseHash(value, field string) (common.Hash, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "0x") || len(trimmed) != 66 {
		return common.Hash{}, fmt.Errorf("genesis: %s must be a 32-byte hex hash", field)
	}
	hash := common.HexToHash(trimmed)
	if hash == (common.Hash{}) {
		return common.Hash{}, fmt.Errorf("genesis: %s cannot be zero", field)
	}
	return hash, nil
}

func parseAmount(value, field string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("genesis: %s required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("genesis: %s must be a positive decimal amount", field)
	}
	return amount, nil
}
