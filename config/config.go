package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level node configuration loaded from TOML.
type Config struct {
	DataDir        string `toml:"DataDir"`
	MetricsAddress string `toml:"MetricsAddress"`
	Environment    string `toml:"Environment"`

	Genesis Genesis `toml:"Genesis"`
}

// Genesis holds the parameters applied once on first boot.
type Genesis struct {
	Owner          string `toml:"Owner"`
	AllocationRoot string `toml:"AllocationRoot"`

	TokenUnlockSeconds   int64  `toml:"TokenUnlockSeconds"`
	MintStartTime        int64  `toml:"MintStartTime"`
	CycleDurationSeconds int64  `toml:"CycleDurationSeconds"`
	CycleMintBps         uint32 `toml:"CycleMintBps"`

	StakeUnit          string `toml:"StakeUnit"`
	MaxStakePerAccount string `toml:"MaxStakePerAccount"`
	StakeLockSeconds   int64  `toml:"StakeLockSeconds"`

	StoreTreasury string    `toml:"StoreTreasury"`
	Premine       []Premine `toml:"Premine"`
}

// Premine seeds a payment-token balance at genesis.
type Premine struct {
	Address string `toml:"Address"`
	Token   string `toml:"Token"`
	Amount  string `toml:"Amount"`
}

// Load loads the configuration from the given path, creating a commented
// default file when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.normalize(path)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize(path string) {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = filepath.Join(filepath.Dir(path), "data")
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = "127.0.0.1:9464"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.Genesis.TokenUnlockSeconds == 0 {
		c.Genesis.TokenUnlockSeconds = 180 * 24 * 60 * 60
	}
	if c.Genesis.CycleDurationSeconds == 0 {
		c.Genesis.CycleDurationSeconds = 30 * 24 * 60 * 60
	}
	if c.Genesis.CycleMintBps == 0 {
		c.Genesis.CycleMintBps = 100
	}
	if strings.TrimSpace(c.Genesis.StakeUnit) == "" {
		c.Genesis.StakeUnit = "1000000000000000000000" // 1000 whole tokens
	}
	if strings.TrimSpace(c.Genesis.MaxStakePerAccount) == "" {
		c.Genesis.MaxStakePerAccount = "10000000000000000000000" // 10 bundles
	}
	if c.Genesis.StakeLockSeconds == 0 {
		c.Genesis.StakeLockSeconds = 90 * 24 * 60 * 60
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Genesis.Owner) == "" {
		return fmt.Errorf("config: Genesis.Owner is required")
	}
	if strings.TrimSpace(c.Genesis.AllocationRoot) == "" {
		return fmt.Errorf("config: Genesis.AllocationRoot is required")
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.normalize(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("config: wrote default config to %s; fill in Genesis.Owner and Genesis.AllocationRoot", path)
}
