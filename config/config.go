package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StorageLevelDB = "leveldb"
	StorageBolt    = "bolt"
)

// EnvPrefix prefixes environment overrides of file settings, e.g.
// LIGANITE_RPC_PORT.
const EnvPrefix = "LIGANITE"

// GenesisPublisher is a publisher registered at genesis without a deposit.
type GenesisPublisher struct {
	Account string `json:"account" mapstructure:"account"`
	Name    string `json:"name" mapstructure:"name"`
	URL     string `json:"url" mapstructure:"url"`
}

// GenesisConfig describes the marketplace's initial state.
type GenesisConfig struct {
	ChainID          string             `json:"chain_id" mapstructure:"chain_id"`
	Admin            string             `json:"admin" mapstructure:"admin"` // pubkey hex allowed to set the deposit
	Alloc            map[string]uint64  `json:"alloc" mapstructure:"alloc"` // pubkey hex → initial balance
	PublisherDeposit uint64             `json:"publisher_deposit" mapstructure:"publisher_deposit"`
	Tags             []string           `json:"tags,omitempty" mapstructure:"tags"` // empty → tags.Default
	Publishers       []GenesisPublisher `json:"publishers,omitempty" mapstructure:"publishers"`
}

// LoggingConfig mirrors logger.Configuration.
type LoggingConfig struct {
	Directory string            `json:"directory" mapstructure:"directory"`
	File      string            `json:"file" mapstructure:"file"`
	Size      int               `json:"size" mapstructure:"size"`
	Count     int               `json:"count" mapstructure:"count"`
	Console   bool              `json:"console" mapstructure:"console"`
	Levels    map[string]string `json:"levels" mapstructure:"levels"`
}

// LoggerConfiguration converts the section for logger.Initialise. Viper
// lower-cases map keys, so the default tag is matched case-insensitively.
func (l LoggingConfig) LoggerConfiguration() logger.Configuration {
	levels := make(map[string]string, len(l.Levels))
	for tag, level := range l.Levels {
		if strings.EqualFold(tag, logger.DefaultTag) {
			tag = logger.DefaultTag
		}
		levels[tag] = level
	}
	return logger.Configuration{
		Directory: l.Directory,
		File:      l.File,
		Size:      l.Size,
		Count:     l.Count,
		Console:   l.Console,
		Levels:    levels,
	}
}

// Config holds all node configuration.
type Config struct {
	NodeID      string        `json:"node_id" mapstructure:"node_id"`
	DataDir     string        `json:"data_dir" mapstructure:"data_dir"`
	Storage     string        `json:"storage" mapstructure:"storage"` // leveldb (default) or bolt
	RPCPort     int           `json:"rpc_port" mapstructure:"rpc_port"`
	JournalSize int           `json:"journal_size" mapstructure:"journal_size"` // events kept for getEvents
	Logging     LoggingConfig `json:"logging" mapstructure:"logging"`
	Genesis     GenesisConfig `json:"genesis" mapstructure:"genesis"`
}

// Secrets are read from the environment only and never written to disk.
type Secrets struct {
	KeystorePassword string `env:"LIGANITE_KEYSTORE_PASSWORD"`
	RPCToken         string `env:"LIGANITE_RPC_TOKEN"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:      "node0",
		DataDir:     "./data",
		Storage:     StorageLevelDB,
		RPCPort:     8545,
		JournalSize: 4096,
		Logging: LoggingConfig{
			Directory: "./data/log",
			File:      "liganite.log",
			Size:      1048576,
			Count:     10,
			Levels:    map[string]string{logger.DefaultTag: "info"},
		},
		Genesis: GenesisConfig{
			ChainID:          "liganite-dev",
			Alloc:            map[string]uint64{},
			PublisherDeposit: 1_000_000,
		},
	}
}

// setDefaults registers every default so that env overrides work for keys
// absent from the file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("node_id", d.NodeID)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("storage", d.Storage)
	v.SetDefault("rpc_port", d.RPCPort)
	v.SetDefault("journal_size", d.JournalSize)
	v.SetDefault("logging.directory", d.Logging.Directory)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.size", d.Logging.Size)
	v.SetDefault("logging.count", d.Logging.Count)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.levels", d.Logging.Levels)
	v.SetDefault("genesis.chain_id", d.Genesis.ChainID)
	v.SetDefault("genesis.publisher_deposit", d.Genesis.PublisherDeposit)
}

// Load reads the config file at path (JSON or YAML by extension), applies
// LIGANITE_* environment overrides and validates the result. An empty path
// yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Genesis.Alloc == nil {
		cfg.Genesis.Alloc = map[string]uint64{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageLevelDB, StorageBolt:
	default:
		errs = append(errs, fmt.Errorf("storage %q: want %q or %q", c.Storage, StorageLevelDB, StorageBolt))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.RPCPort <= 0 || c.RPCPort > 65535 {
		errs = append(errs, fmt.Errorf("rpc_port %d out of range", c.RPCPort))
	}
	if c.Genesis.ChainID == "" {
		errs = append(errs, errors.New("genesis.chain_id is required"))
	}
	return errors.Join(errs...)
}

// LoadSecrets reads secrets from the environment.
func LoadSecrets() (Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
