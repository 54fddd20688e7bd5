package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the gateway configuration loaded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	// Assets lists the token symbols registered with the ledger movers at
	// startup. The native asset is always available for fees.
	Assets []string `toml:"Assets"`

	FundMe FundMePolicy `toml:"fundme"`
}

// FundMePolicy holds the escrow fee and timeout knobs. Amounts are decimal
// strings so large values survive TOML round trips.
type FundMePolicy struct {
	CreateTransactionFee string `toml:"CreateTransactionFee"`
	MaxMilestones        uint32 `toml:"MaxMilestones"`
	FeeDepositTimeout    int64  `toml:"FeeDepositTimeout"`
	AppealWindow         int64  `toml:"AppealWindow"`
	SplitBps             uint32 `toml:"SplitBps"`
	DefaultWithdrawGrace int64  `toml:"DefaultWithdrawGrace"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ListenAddress: ":8690",
		DataDir:       "./fundvault-data",
		Environment:   "dev",
		Assets:        []string{"FVT"},
		FundMe: FundMePolicy{
			CreateTransactionFee: "1",
			MaxMilestones:        20,
			FeeDepositTimeout:    3600,
			AppealWindow:         3600,
			SplitBps:             5000,
			DefaultWithdrawGrace: 86400,
		},
	}
}

// Load reads the TOML file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engines cannot run with.
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if _, ok := new(big.Int).SetString(c.FundMe.CreateTransactionFee, 10); !ok {
		return fmt.Errorf("config: CreateTransactionFee must be a base-10 integer")
	}
	if c.FundMe.MaxMilestones == 0 {
		return fmt.Errorf("config: MaxMilestones must be positive")
	}
	if c.FundMe.FeeDepositTimeout <= 0 {
		return fmt.Errorf("config: FeeDepositTimeout must be positive")
	}
	if c.FundMe.SplitBps > 10_000 {
		return fmt.Errorf("config: SplitBps cannot exceed 10000")
	}
	return nil
}

// CreationFee parses the configured flat creation fee.
func (c Config) CreationFee() *big.Int {
	fee, ok := new(big.Int).SetString(c.FundMe.CreateTransactionFee, 10)
	if !ok {
		return big.NewInt(0)
	}
	return fee
}
