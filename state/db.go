package state

import (
	"sync"

	"github.com/calehh/vote-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	mtx sync.RWMutex

	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("vote", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return NewStateDBWithDB(ldb, logger)
}

func NewStateDBWithDB(ldb dbm.DB, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "votedb")
	tdb := iavl.NewMutableTree(ldb, 128, true, CometLoggerToCosmos(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	err = st.load()
	if err != nil {
		logger.Error("votedb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) Version() int64 {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.dbVer
}

// State returns the last committed state.
func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

// NewState starts a working state on top of the committed one.
func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

// SetState commits st as a new tree version and makes it current.
func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

// Reads that may fill the committed state's caches take the write lock.

func (db *StateDB) GetAccount(addr types.Address) (acnt *Account, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	acnt, err = db.state.GetAccount(addr)
	if err != nil {
		return
	}
	acnt = acnt.Clone()
	height = db.state.header.Height
	return
}

func (db *StateDB) GetProposal(loc types.Address) (proposal *types.Proposal, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	proposal, err = db.state.Proposal(loc)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetVoterRegistry(loc types.Address) (registry *types.VoterRegistry, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	registry, err = db.state.VoterRegistry(loc)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetVoteStatus(loc, voter types.Address) (status *types.BallotStatus, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	status, err = db.state.VoteStatus(loc, voter)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetProposals() (locs []types.Address, proposals []*types.Proposal, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	locs, proposals, err = db.state.Proposals()
	height = db.state.header.Height
	return
}

func (db *StateDB) Params() types.Params {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.Params()
}
