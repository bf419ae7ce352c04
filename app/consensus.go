package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrNoHandler           = errors.New("no handler for tx type")
)

// getState starts the working state of the block at height.
func (app *VoteApp) getState(height int64) (st *state.State) {
	st = app.db.NewState()
	st.SetHeight(uint64(height))
	return
}

// parseTx decodes txDat and checks its nonce and signature against st.
func (app *VoteApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.VoteTx, err error) {
	btx, err = tx.UnmarshalVoteTx(txDat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", state.ErrInvalidInput, err)
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

func (app *VoteApp) newContext(ctx context.Context) {
	for _, h := range app.txHdlrs {
		h.NewContext(ctx)
	}
}

func (app *VoteApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	st := app.db.State()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Info("parse tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: state.ErrorCode(err), Log: err.Error()}
		app.metrics.checkTx(tx.TxTypeUnknown.String(), res.Code)
		return res, nil
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res = &abcitypes.ResponseCheckTx{Code: state.CodeInternal, Log: ErrNoHandler.Error()}
		app.metrics.checkTx(btx.Type.String(), res.Code)
		return res, nil
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: state.ErrorCode(err), Log: err.Error()}
		err = nil
	}
	app.metrics.checkTx(btx.Type.String(), res.Code)
	return
}

// execTx applies one transaction on a clone of st and returns the clone
// only when the transaction succeeded.
func (app *VoteApp) execTx(ctx context.Context, st *state.State, txDat []byte, prepare bool) (next *state.State, btx *tx.VoteTx, result *abcitypes.ExecTxResult, err error) {
	next = st.Clone()
	btx, err = app.parseTx(next, txDat, false)
	if err != nil {
		return nil, nil, nil, err
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return nil, btx, nil, ErrNoHandler
	}
	if prepare {
		result, err = h.Prepare(ctx, next, btx)
	} else {
		result, err = h.Process(ctx, next, btx)
	}
	if err != nil {
		return nil, btx, nil, err
	}
	if result == nil {
		return nil, btx, nil, ErrUnexpectedTxProcess
	}
	return
}

func (app *VoteApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.getState(proposal.Height)
	app.newContext(ctx)
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		next, btx, _, err := app.execTx(ctx, st, stx, true)
		if err != nil {
			if btx != nil {
				app.logger.Info("prepare tx dropped", "type", btx.Type, "err", err)
			} else {
				app.logger.Info("prepare tx dropped", "err", err)
			}
			continue
		}
		st = next
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *VoteApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.getState(proposal.Height)
	app.newContext(ctx)
	for _, stx := range proposal.Txs {
		next, btx, _, err := app.execTx(ctx, st, stx, false)
		if err != nil {
			if btx != nil {
				app.logger.Error("proposal rejected", "height", proposal.Height, "type", btx.Type, "err", err)
			} else {
				app.logger.Error("proposal rejected", "height", proposal.Height, "err", err)
			}
			return res, nil
		}
		st = next
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *VoteApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.getState(req.Height)
	app.newContext(ctx)
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		next, btx, result, err := app.execTx(ctx, st, stx, false)
		txType := tx.TxTypeUnknown
		if btx != nil {
			txType = btx.Type
		}
		if err != nil {
			app.logger.Info("tx failed", "height", req.Height, "index", i, "type", txType, "err", err)
			result = &abcitypes.ExecTxResult{Code: state.ErrorCode(err), Log: err.Error()}
		} else {
			st = next
			if txType == tx.TxTypeCastVote {
				app.metrics.vote(len(result.Events) > 0)
			}
		}
		app.metrics.tx(txType.String(), result.Code)
		results[i] = result
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	app.metrics.blockHeight.Set(float64(req.Height))
	app.metrics.blockTxs.Observe(float64(len(req.Txs)))
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *VoteApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrUnexpectedTxProcess
	}
	h, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height, "hash", h)
	return &abcitypes.ResponseCommit{}, nil
}
