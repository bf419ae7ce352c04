package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestWriteConfigFileRoundTrip(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	cfg.App.IndexerEnabled = false
	cfg.App.IndexerListenAddress = "0.0.0.0:9000"
	cfg.App.IndexerPollInterval = 5 * time.Second
	path := filepath.Join(home, "config", "config.toml")
	WriteConfigFile(path, cfg)

	loaded := DefaultConfig(home)
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	require.NoError(t, v.Unmarshal(loaded))
	loaded.SetRoot(home)
	loaded.App.Home = home

	require.False(t, loaded.App.IndexerEnabled)
	require.Equal(t, "0.0.0.0:9000", loaded.App.IndexerListenAddress)
	require.Equal(t, 5*time.Second, loaded.App.IndexerPollInterval)
	require.Equal(t, DefaultIndexerDBFile, loaded.App.IndexerDBPath)
	require.Equal(t, cfg.Consensus.TimeoutCommit, loaded.Consensus.TimeoutCommit)
	require.NoError(t, loaded.ValidateBasic())
}

func TestAppConfigPaths(t *testing.T) {
	cfg := DefaultAppConfig("/srv/vote")
	require.Equal(t, "/srv/vote/data", cfg.DataDir())
	require.Equal(t, "/srv/vote/indexer.db", cfg.IndexerDB())
	cfg.IndexerDBPath = "/var/lib/indexer.db"
	require.Equal(t, "/var/lib/indexer.db", cfg.IndexerDB())
}

func TestAppConfigValidate(t *testing.T) {
	cfg := DefaultAppConfig(t.TempDir())
	require.NoError(t, cfg.ValidateBasic())
	cfg.IndexerListenAddress = ""
	require.Error(t, cfg.ValidateBasic())
	cfg.IndexerEnabled = false
	require.NoError(t, cfg.ValidateBasic())
	cfg.IndexerPollInterval = -time.Second
	require.Error(t, cfg.ValidateBasic())
}
