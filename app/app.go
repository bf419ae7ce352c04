package app

import (
	"context"
	"fmt"

	"github.com/calehh/vote-app/config"
	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/tx/handler"
	"github.com/calehh/vote-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

const AppVersion uint64 = 1

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &VoteApp{}

type VoteApp struct {
	cfg    *config.AppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.TxType]handler.TxHandler
	queriers map[string]Querier
	metrics  *appMetrics

	st *state.State
}

// NewVoteApp opens the state database under the home directory and
// registers metrics on the default prometheus registry.
func NewVoteApp(cfg *config.AppConfig, logger cmtlog.Logger) (app *VoteApp, err error) {
	db, err := state.NewStateDB(cfg.DataDir(), logger)
	if err != nil {
		return nil, err
	}
	return NewVoteAppWithDB(cfg, db, prometheus.DefaultRegisterer, logger), nil
}

func NewVoteAppWithDB(cfg *config.AppConfig, db *state.StateDB, reg prometheus.Registerer, logger cmtlog.Logger) (app *VoteApp) {
	logger = logger.With("module", "app")
	app = &VoteApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.TxType]handler.TxHandler),
		queriers: make(map[string]Querier),
		metrics:  newAppMetrics(reg),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *VoteApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *VoteApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("vote app stopped")
}

func (app *VoteApp) registerTxHandler() {
	app.txHdlrs = map[tx.TxType]handler.TxHandler{
		tx.TxTypeCreateProposal: handler.NewCreateProposalTxHandler(app.logger),
		tx.TxTypeRegisterVoters: handler.NewRegisterVotersTxHandler(app.logger),
		tx.TxTypeCastVote:       handler.NewCastVoteTxHandler(app.logger),
	}
}

func (app *VoteApp) registerQuerier() {
	app.queriers[QueryPathProposals] = NewProposalQuerier(app.db, app.logger)
	app.queriers[QueryPathVoters] = NewVoterRegistryQuerier(app.db, app.logger)
	app.queriers[QueryPathBallots] = NewBallotQuerier(app.db, app.logger)
	app.queriers[QueryPathAccounts] = NewAccountQuerier(app.db, app.logger)
	app.queriers[QueryPathParams] = NewParamsQuerier(app.db, app.logger)
}

func (app *VoteApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	genesis, err := types.ParseGenesisAppState(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, err
	}
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	err = st.SetParams(genesis.Params)
	if err != nil {
		return nil, err
	}
	for _, a := range genesis.Accounts {
		err = st.Credit(a.Address, a.Balance)
		if err != nil {
			app.logger.Error("InitChain credit account fail", "address", a.Address, "err", err)
			return nil, err
		}
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.logger.Info("InitChain", "chainId", chain.ChainId, "accounts", len(genesis.Accounts), "scope", genesis.Params.RegistryScope)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *VoteApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Data:             fmt.Sprintf("%s app", types.ModuleName),
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *VoteApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *VoteApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *VoteApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}

func (app *VoteApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *VoteApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *VoteApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_REJECT}, nil
}
