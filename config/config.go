package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"lottochain/native/lottery"
	"lottochain/native/rewardstake"
)

// Config is the lotteryd daemon configuration.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	Env            string `toml:"Env"`

	// EntropyMode selects "pseudo" or "vrf" draw randomness.
	EntropyMode string `toml:"EntropyMode"`

	// Hex-encoded 20-byte addresses.
	AdminAddress  string `toml:"AdminAddress"`
	OracleAddress string `toml:"OracleAddress"`
	VaultAddress  string `toml:"VaultAddress"`

	RPCRateLimit float64 `toml:"RPCRateLimit"`
	RPCRateBurst int     `toml:"RPCRateBurst"`

	Staking StakingConfig `toml:"Staking"`
}

// StakingConfig overrides the reward accrual parameters. Zero values fall
// back to the engine defaults.
type StakingConfig struct {
	EpochSeconds    int64  `toml:"EpochSeconds"`
	BaseRateWad     string `toml:"BaseRateWad"`
	BuyCreditBps    uint32 `toml:"BuyCreditBps"`
	MinClaimSeconds int64  `toml:"MinClaimSeconds"`
}

// Load reads the configuration from path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the addresses and entropy mode.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress is required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir is required")
	}
	if _, ok := lottery.ParseEntropyMode(c.EntropyMode); !ok {
		return fmt.Errorf("config: unknown entropy mode %q", c.EntropyMode)
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"AdminAddress", c.AdminAddress},
		{"OracleAddress", c.OracleAddress},
		{"VaultAddress", c.VaultAddress},
	} {
		if _, err := ParseAddress(field.value); err != nil {
			return fmt.Errorf("config: %s: %w", field.name, err)
		}
	}
	if _, err := c.Staking.Params(); err != nil {
		return err
	}
	return nil
}

// EntropyModeValue returns the parsed entropy mode.
func (c *Config) EntropyModeValue() lottery.EntropyMode {
	mode, _ := lottery.ParseEntropyMode(c.EntropyMode)
	return mode
}

// Admin returns the parsed admin address.
func (c *Config) Admin() [20]byte { return mustAddress(c.AdminAddress) }

// Oracle returns the parsed oracle address.
func (c *Config) Oracle() [20]byte { return mustAddress(c.OracleAddress) }

// Vault returns the parsed vault address.
func (c *Config) Vault() [20]byte { return mustAddress(c.VaultAddress) }

// Params merges the staking overrides onto the engine defaults.
func (s StakingConfig) Params() (rewardstake.Params, error) {
	params := rewardstake.DefaultParams()
	if s.EpochSeconds > 0 {
		params.EpochSeconds = s.EpochSeconds
	}
	if strings.TrimSpace(s.BaseRateWad) != "" {
		rate, ok := new(big.Int).SetString(strings.TrimSpace(s.BaseRateWad), 10)
		if !ok {
			return params, fmt.Errorf("config: invalid Staking.BaseRateWad %q", s.BaseRateWad)
		}
		params.BaseRateWad = rate
	}
	if s.BuyCreditBps > 0 {
		params.BuyCreditBps = s.BuyCreditBps
	}
	if s.MinClaimSeconds > 0 {
		params.MinClaimSeconds = s.MinClaimSeconds
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("config: staking params: %w", err)
	}
	return params, nil
}

// ParseAddress decodes a hex-encoded 20-byte address, with or without the
// 0x prefix.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid hex address %q", raw)
	}
	if len(decoded) != 20 {
		return addr, fmt.Errorf("address %q must be 20 bytes", raw)
	}
	copy(addr[:], decoded)
	return addr, nil
}

func mustAddress(raw string) [20]byte {
	addr, err := ParseAddress(raw)
	if err != nil {
		return [20]byte{}
	}
	return addr
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:     ":8080",
		MetricsAddress: ":9090",
		DataDir:        "./lotto-data",
		Env:            "local",
		EntropyMode:    "pseudo",
		AdminAddress:   hex.EncodeToString(make([]byte, 20)),
		OracleAddress:  hex.EncodeToString(make([]byte, 20)),
		VaultAddress:   hex.EncodeToString(make([]byte, 20)),
		RPCRateLimit:   50,
		RPCRateBurst:   100,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
