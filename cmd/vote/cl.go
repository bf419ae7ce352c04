package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/calehh/vote-app/app"
	app_config "github.com/calehh/vote-app/config"
	"github.com/calehh/vote-app/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var homeDir string

var clCmd = &cobra.Command{
	Use:   "vote",
	Short: "vote runs an on-ledger voting node",
	Long: `A CometBFT application keeping proposals, voter registries and
ballots at derived addresses.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	clCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

// loadConfig reads config.toml under home. Environment variables prefixed
// with VOTE override file values, e.g. VOTE_APP_INDEXER_ENABLED.
func loadConfig(home string) (*app_config.Config, error) {
	appConfig := app_config.DefaultConfig(home)
	v := viper.New()
	v.SetConfigFile(filepath.Join(home, "config", "config.toml"))
	v.SetEnvPrefix("VOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := v.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	appConfig.SetRoot(home)
	appConfig.App.Home = home
	if err := appConfig.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return appConfig, nil
}

func run(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = os.ExpandEnv(app_config.DefaultHomeDir)
	}
	appConfig, err := loadConfig(homeDir)
	if err != nil {
		log.Fatal(err)
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	voteApp, err := app.NewVoteApp(appConfig.App, logger)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(voteApp),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	voteApp.Start(node.BlockStore())
	err = node.Start()
	if err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var chainIndexer *indexer.ChainIndexer
	if appConfig.App.IndexerEnabled {
		rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
		if err != nil {
			log.Fatalf("parse rpc url err %s", err.Error())
		}
		rpcUrl.Scheme = "http"
		chainIndexer, err = indexer.NewChainIndexer(logger, appConfig.App.IndexerDB(), rpcUrl.String(), appConfig.App.IndexerPollInterval)
		if err != nil {
			log.Fatalf("new chain indexer err %s", err.Error())
		}
		go chainIndexer.Start(ctx)
		service := indexer.NewService(appConfig.App.IndexerListenAddress, chainIndexer)
		go func() {
			if err := service.Start(); err != nil {
				logger.Error("indexer service stopped", "err", err)
			}
		}()
	}

	defer func() {
		log.Println("shut down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := node.Stop(); err != nil {
				logger.Error("stop comet node fail", "err", err)
			}
			node.Wait()
			voteApp.Stop()
			if chainIndexer != nil {
				_ = chainIndexer.Close()
			}
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
