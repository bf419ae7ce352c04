package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const (
	QueryPathProposals = "/proposals/"
	QueryPathVoters    = "/voters/"
	QueryPathBallots   = "/ballots/"
	QueryPathAccounts  = "/accounts/"
	QueryPathParams    = "/params/"

	CodeUnknownPath uint32 = 404
)

var (
	ErrInvalidQueryData = errors.New("invalid query data")
)

func (app *VoteApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = CodeUnknownPath
		res.Log = "unknown path " + req.Path
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

func queryResult(v any, height uint64, err error) (res *abcitypes.ResponseQuery) {
	res = &abcitypes.ResponseQuery{Height: int64(height)}
	if err != nil {
		res.Code = state.ErrorCode(err)
		res.Log = err.Error()
		return
	}
	res.Value, err = json.Marshal(v)
	if err != nil {
		res.Code = state.CodeInternal
		res.Log = err.Error()
	}
	return
}

func queryAddress(data []byte) (types.Address, error) {
	addr, err := types.BytesToAddress(data)
	if err != nil {
		return addr, errors.Join(state.ErrInvalidInput, ErrInvalidQueryData, err)
	}
	return addr, nil
}

// ProposalQuerier returns the proposal at a 32 byte location, or every
// proposal when no location is given.
type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

type ProposalEntry struct {
	Location types.Address   `json:"location"`
	Proposal *types.Proposal `json:"proposal"`
}

func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	if len(req.Data) == 0 {
		locs, proposals, height, err := q.db.GetProposals()
		entries := make([]ProposalEntry, len(locs))
		for i := range locs {
			entries[i] = ProposalEntry{Location: locs[i], Proposal: proposals[i]}
		}
		return queryResult(entries, height, err), nil
	}
	loc, err := queryAddress(req.Data)
	if err != nil {
		return queryResult(nil, 0, err), nil
	}
	p, height, err := q.db.GetProposal(loc)
	return queryResult(p, height, err), nil
}

type VoterRegistryQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVoterRegistryQuerier(db *state.StateDB, logger cmtlog.Logger) (q *VoterRegistryQuerier) {
	q = &VoterRegistryQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *VoterRegistryQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	loc, err := queryAddress(req.Data)
	if err != nil {
		return queryResult(nil, 0, err), nil
	}
	r, height, err := q.db.GetVoterRegistry(loc)
	return queryResult(r, height, err), nil
}

// BallotQuerier answers whether the vote of a voter counted. Data is the
// proposal location followed by the voter identity.
type BallotQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewBallotQuerier(db *state.StateDB, logger cmtlog.Logger) (q *BallotQuerier) {
	q = &BallotQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *BallotQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	if len(req.Data) != 2*types.AddressLength {
		return queryResult(nil, 0, errors.Join(state.ErrInvalidInput, ErrInvalidQueryData)), nil
	}
	loc, _ := types.BytesToAddress(req.Data[:types.AddressLength])
	voter, _ := types.BytesToAddress(req.Data[types.AddressLength:])
	status, height, err := q.db.GetVoteStatus(loc, voter)
	return queryResult(status, height, err), nil
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	addr, err := queryAddress(req.Data)
	if err != nil {
		return queryResult(nil, 0, err), nil
	}
	a, height, err := q.db.GetAccount(addr)
	return queryResult(a, height, err), nil
}

type ParamsQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewParamsQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ParamsQuerier) {
	q = &ParamsQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ParamsQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	return queryResult(q.db.Params(), q.db.Header().Height, nil), nil
}
