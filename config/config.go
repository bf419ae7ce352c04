package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const (
	DefaultHomeDir              = "$HOME/.vote"
	DefaultIndexerListenAddress = "127.0.0.1:8088"
	DefaultIndexerDBFile        = "indexer.db"
	DefaultIndexerPollInterval  = time.Second * 2
)

type AppConfig struct {
	Home string `mapstructure:"-"`

	IndexerEnabled       bool          `mapstructure:"indexer_enabled"`
	IndexerListenAddress string        `mapstructure:"indexer_listen_address"`
	IndexerDBPath        string        `mapstructure:"indexer_db_path"`
	IndexerPollInterval  time.Duration `mapstructure:"indexer_poll_interval"`
}

func DefaultAppConfig(home string) *AppConfig {
	return &AppConfig{
		Home:                 home,
		IndexerEnabled:       true,
		IndexerListenAddress: DefaultIndexerListenAddress,
		IndexerDBPath:        DefaultIndexerDBFile,
		IndexerPollInterval:  DefaultIndexerPollInterval,
	}
}

func (cfg *AppConfig) DataDir() string {
	return filepath.Join(cfg.Home, "data")
}

// IndexerDB resolves the indexer database path against the home directory.
func (cfg *AppConfig) IndexerDB() string {
	if filepath.IsAbs(cfg.IndexerDBPath) {
		return cfg.IndexerDBPath
	}
	return filepath.Join(cfg.Home, cfg.IndexerDBPath)
}

func (cfg *AppConfig) ValidateBasic() error {
	if cfg.IndexerEnabled && cfg.IndexerListenAddress == "" {
		return fmt.Errorf("indexer_listen_address is required when the indexer is enabled")
	}
	if cfg.IndexerPollInterval < 0 {
		return fmt.Errorf("indexer_poll_interval can't be negative")
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *AppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHomeDir)
	}
	cfg := &Config{
		DefaultVoteCometConfig(),
		DefaultAppConfig(home),
	}
	cfg.SetRoot(home)
	_ = os.MkdirAll(filepath.Join(home, "config"), 0o755)
	return cfg
}

func (cfg *Config) ValidateBasic() error {
	if err := cfg.Config.ValidateBasic(); err != nil {
		return err
	}
	return cfg.App.ValidateBasic()
}

func InitializeNodeValidatorFiles(cfg *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(cfg.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := cfg.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := cfg.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultVoteCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
