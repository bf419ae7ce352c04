package handler

import (
	"context"

	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

// TxHandler executes one transaction type. Check runs against the mempool
// state without writing; Prepare and Process apply the transaction while a
// block is proposed or executed. NewContext resets per-block bookkeeping.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ResponseCheckTx, err error)
	NewContext(ctx context.Context)
	Prepare(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.VoteTx) (res *abcitypes.ExecTxResult, err error)
}

func checkResult(err error) *abcitypes.ResponseCheckTx {
	res := &abcitypes.ResponseCheckTx{Code: state.ErrorCode(err)}
	if err != nil {
		res.Log = err.Error()
	}
	return res
}
