package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// WalletConfig selects the signing capability: an in-process key, a
// hardware device, or a watch-only address for read commands.
type WalletConfig struct {
	PrivateKey     string // Base58-encoded key for software signing
	Address        string // watch-only public key, optional
	UseLedger      bool
	DerivationPath string
	LedgerAddress  string // public key the device signs for
}

// PriorityFeeConfig caps the priority fee and names the urgency tier.
type PriorityFeeConfig struct {
	MaxLamports uint64
	Level       string
}

// Config holds the application configuration.
type Config struct {
	RPCURL        string
	AggregatorURL string
	PriceURL      string
	Commitment    string

	Wallet      WalletConfig
	PriorityFee PriorityFeeConfig

	SlippageBps    int
	DustUSD        float64
	MaxRetries     int
	RetryBaseDelay time.Duration
	AutoConfirm    bool
}

var globalConfig *Config

// Load reads configuration from environment variables and config file.
func Load() (*Config, error) {
	viper.SetConfigName(".solsweep")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("aggregator_url", "https://quote-api.jup.ag/v6")
	viper.SetDefault("price_url", "https://price.jup.ag/v6")
	viper.SetDefault("commitment", "confirmed")
	viper.SetDefault("slippage_bps", 100)
	viper.SetDefault("dust_usd", 1.0)
	viper.SetDefault("max_retries", 2)
	viper.SetDefault("retry_base_delay", "2s")
	viper.SetDefault("priority_fee.max_lamports", 1_000_000)
	viper.SetDefault("priority_fee.level", "medium")
	viper.SetDefault("wallet.derivation_path", "44'/501'/0'")

	viper.SetEnvPrefix("SOLSWEEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()

	cfg := &Config{
		RPCURL:        viper.GetString("rpc_url"),
		AggregatorURL: viper.GetString("aggregator_url"),
		PriceURL:      viper.GetString("price_url"),
		Commitment:    viper.GetString("commitment"),
		Wallet: WalletConfig{
			PrivateKey:     viper.GetString("wallet.private_key"),
			Address:        viper.GetString("wallet.address"),
			UseLedger:      viper.GetBool("wallet.use_ledger"),
			DerivationPath: viper.GetString("wallet.derivation_path"),
			LedgerAddress:  viper.GetString("wallet.ledger_address"),
		},
		PriorityFee: PriorityFeeConfig{
			MaxLamports: viper.GetUint64("priority_fee.max_lamports"),
			Level:       viper.GetString("priority_fee.level"),
		},
		SlippageBps:    viper.GetInt("slippage_bps"),
		DustUSD:        viper.GetFloat64("dust_usd"),
		MaxRetries:     viper.GetInt("max_retries"),
		RetryBaseDelay: viper.GetDuration("retry_base_delay"),
		AutoConfirm:    viper.GetBool("auto_confirm"),
	}

	globalConfig = cfg
	return cfg, nil
}

// OwnerPublicKey resolves the wallet's public key from whichever wallet
// option is configured.
func (c *Config) OwnerPublicKey() (solana.PublicKey, error) {
	switch {
	case c.Wallet.UseLedger && c.Wallet.LedgerAddress != "":
		return parseAddress(c.Wallet.LedgerAddress)
	case c.Wallet.PrivateKey != "":
		key, err := solana.PrivateKeyFromBase58(c.Wallet.PrivateKey)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid private key: %w", err)
		}
		return key.PublicKey(), nil
	case c.Wallet.Address != "":
		return parseAddress(c.Wallet.Address)
	default:
		return solana.PublicKey{}, fmt.Errorf("no wallet configured. Set wallet.private_key (or SOLSWEEP_WALLET_PRIVATE_KEY), or wallet.address for read-only commands")
	}
}

func parseAddress(address string) (solana.PublicKey, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid wallet address: %w", err)
	}
	return pub, nil
}

// Get returns the global configuration.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration.
func Set(cfg *Config) {
	globalConfig = cfg
}
