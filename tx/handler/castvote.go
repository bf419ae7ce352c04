package handler

import (
	"context"
	"errors"

	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

var (
	ErrDuplicateVoteInBlock = errors.New("duplicate vote in block")
)

type ballotKey struct {
	proposal types.Address
	voter    types.Address
}

// CastVoteTxHandler keeps the (proposal, voter) pairs seen in the current
// block. A proposer leaves repeated votes out of its block; a validator
// executing someone else's block applies them, where they count at most once.
type CastVoteTxHandler struct {
	logger cmtlog.Logger

	seen map[ballotKey]struct{}
}

func NewCastVoteTxHandler(logger cmtlog.Logger) (h *CastVoteTxHandler) {
	logger = logger.With("module", "castVoteTx")
	h = &CastVoteTxHandler{
		logger: logger,
		seen:   make(map[ballotKey]struct{}),
	}
	return
}

func (h *CastVoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ResponseCheckTx, err error) {
	vtx := btx.Tx.(*tx.CastVoteTx)
	_, err1 := st.CastVote(vtx, btx.Signer, true)
	if err1 != nil {
		h.logger.Info("CheckTx CastVoteTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *CastVoteTxHandler) NewContext(ctx context.Context) {
	h.seen = make(map[ballotKey]struct{})
}

func (h *CastVoteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	vtx := btx.Tx.(*tx.CastVoteTx)
	event, err := st.CastVote(vtx, btx.Signer, false)
	if err != nil {
		return nil, err
	}
	h.seen[ballotKey{proposal: vtx.Proposal, voter: btx.Signer}] = struct{}{}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventVoteCast(event)}
	} else {
		res.Log = "vote not counted"
	}
	return
}

func (h *CastVoteTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	vtx := btx.Tx.(*tx.CastVoteTx)
	if _, ok := h.seen[ballotKey{proposal: vtx.Proposal, voter: btx.Signer}]; ok {
		return nil, ErrDuplicateVoteInBlock
	}
	return h.handle(ctx, st, btx)
}

func (h *CastVoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
