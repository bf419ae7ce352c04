package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	if _, err := ParseGenesisAppState(ag.AppState); err != nil {
		return fmt.Errorf("invalid app_state: %w", err)
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const ModuleName = "vote"
const DefaultPower = 1000

// DefaultGenesisBalance funds each genesis account.
const DefaultGenesisBalance = 2_000_000_000

type GenesisAccount struct {
	Address Address `json:"address"`
	Balance uint64  `json:"balance"`
}

// GenesisAppState is the app_state section of the genesis document.
type GenesisAppState struct {
	Params   Params           `json:"params"`
	Accounts []GenesisAccount `json:"accounts"`
}

func DefaultGenesisAppState(funded ...Address) *GenesisAppState {
	st := &GenesisAppState{
		Params:   DefaultParams(),
		Accounts: make([]GenesisAccount, 0, len(funded)),
	}
	for _, addr := range funded {
		st.Accounts = append(st.Accounts, GenesisAccount{Address: addr, Balance: DefaultGenesisBalance})
	}
	return st
}

func (st *GenesisAppState) Validate() error {
	if err := st.Params.Validate(); err != nil {
		return err
	}
	seen := make(map[Address]struct{}, len(st.Accounts))
	for _, a := range st.Accounts {
		if a.Address.IsZero() {
			return errors.New("genesis account with empty address")
		}
		if _, ok := seen[a.Address]; ok {
			return fmt.Errorf("duplicate genesis account %v", a.Address)
		}
		seen[a.Address] = struct{}{}
	}
	return nil
}

// ParseGenesisAppState decodes app_state bytes. Empty input yields the
// default state with no funded accounts.
func ParseGenesisAppState(dat []byte) (*GenesisAppState, error) {
	if len(dat) == 0 {
		return DefaultGenesisAppState(), nil
	}
	st := DefaultGenesisAppState()
	if err := json.Unmarshal(dat, st); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}
