package handler

import (
	"context"

	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewCreateProposalTxHandler(logger cmtlog.Logger) (h *CreateProposalTxHandler) {
	logger = logger.With("module", "createProposalTx")
	h = &CreateProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *CreateProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ResponseCheckTx, err error) {
	ptx := btx.Tx.(*tx.CreateProposalTx)
	_, err1 := st.CreateProposal(ptx, btx.Signer, true)
	if err1 != nil {
		h.logger.Info("CheckTx CreateProposalTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *CreateProposalTxHandler) NewContext(ctx context.Context) {}

func (h *CreateProposalTxHandler) handle(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	ptx := btx.Tx.(*tx.CreateProposalTx)
	event, err := st.CreateProposal(ptx, btx.Signer, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalCreated(event)}
	}
	return
}

func (h *CreateProposalTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *CreateProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
