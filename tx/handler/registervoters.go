package handler

import (
	"context"

	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type RegisterVotersTxHandler struct {
	logger cmtlog.Logger
}

func NewRegisterVotersTxHandler(logger cmtlog.Logger) (h *RegisterVotersTxHandler) {
	logger = logger.With("module", "registerVotersTx")
	h = &RegisterVotersTxHandler{
		logger: logger,
	}
	return
}

func (h *RegisterVotersTxHandler) Check(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ResponseCheckTx, err error) {
	rtx := btx.Tx.(*tx.RegisterVotersTx)
	_, err1 := st.RegisterVoters(rtx, btx.Signer, true)
	if err1 != nil {
		h.logger.Info("CheckTx RegisterVotersTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *RegisterVotersTxHandler) NewContext(ctx context.Context) {}

func (h *RegisterVotersTxHandler) handle(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	rtx := btx.Tx.(*tx.RegisterVotersTx)
	event, err := st.RegisterVoters(rtx, btx.Signer, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventVotersRegistered(event)}
	}
	return
}

func (h *RegisterVotersTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RegisterVotersTxHandler) Process(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
