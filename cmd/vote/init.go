package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	app_config "github.com/calehh/vote-app/config"
	"github.com/calehh/vote-app/types"
	cmtos "github.com/cometbft/cometbft/libs/os"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

const flagFund = "fund"

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long: `Initialize validators's and node's configuration files. The validator key
is funded in the genesis app_state so it can pay for proposal storage.`,
	Args: cobra.ExactArgs(0),
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "node home directory")
	initCmd.Flags().StringSlice(flagFund, nil, "additional base58 addresses funded at genesis")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	fund, _ := cmd.Flags().GetStringSlice(flagFund)

	if chainID == "" {
		chainID = fmt.Sprintf("vote-chain-%v", rand.Uint64())
	}
	appConfig := app_config.DefaultConfig(home)

	genFile := appConfig.GenesisFile()
	if !overwrite && cmtos.FileExists(genFile) {
		return fmt.Errorf("genesis file %s already exists, use --%s to replace it", genFile, types.FlagOverwrite)
	}

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	signer, err := types.BytesToAddress(pk.Bytes())
	if err != nil {
		return err
	}
	funded := []types.Address{signer}
	for _, s := range fund {
		addr, err := types.ParseAddress(s)
		if err != nil {
			return err
		}
		if addr != signer {
			funded = append(funded, addr)
		}
	}
	appState, err := json.Marshal(types.DefaultGenesisAppState(funded...))
	if err != nil {
		return err
	}

	vals := []types.GenesisValidator{
		{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower},
	}
	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appState,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file: %w", err)
	}
	app_config.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig)
	return displayInfo(printInfo{
		Moniker:    appConfig.Moniker,
		ChainID:    chainID,
		NodeID:     nodeID,
		AppMessage: appState,
	})
}
