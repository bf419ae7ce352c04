package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/vote-app/app"
	"github.com/calehh/vote-app/crypto"
	"github.com/calehh/vote-app/state"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
	"github.com/cometbft/cometbft/rpc/client/http"
)

type txArguments struct {
	Url    string
	Skey   string
	Nonce  uint64
	NoSend bool
}

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

// abciQuery runs a query against the committed state and decodes the JSON
// answer into v.
func abciQuery(ctx context.Context, cli *http.HTTP, path string, data []byte, v any) error {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("query %s: code %d: %s", path, res.Response.Code, res.Response.Log)
	}
	return json.Unmarshal(res.Response.Value, v)
}

func queryAccount(ctx context.Context, cli *http.HTTP, addr types.Address) (*state.Account, error) {
	var act state.Account
	if err := abciQuery(ctx, cli, app.QueryPathAccounts, addr.Bytes(), &act); err != nil {
		return nil, err
	}
	return &act, nil
}

func queryParams(ctx context.Context, cli *http.HTTP) (*types.Params, error) {
	var params types.Params
	if err := abciQuery(ctx, cli, app.QueryPathParams, nil, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

func queryProposal(ctx context.Context, cli *http.HTTP, loc types.Address) (*types.Proposal, error) {
	var p types.Proposal
	if err := abciQuery(ctx, cli, app.QueryPathProposals, loc.Bytes(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func printJSON(v any) error {
	dat, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(dat))
	return nil
}

// sendTx signs payload with the key at args.Skey and broadcasts it.
func sendTx(ctx context.Context, cli *http.HTTP, args *txArguments, txType tx.TxType, payload any) error {
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	chainId := gres.Genesis.ChainID
	nonce := args.Nonce
	if nonce == 0 {
		act, err := queryAccount(ctx, cli, pv.Address())
		if err != nil {
			return err
		}
		nonce = act.Nonce
	}
	btx := &tx.VoteTx{
		Version: tx.TxVersion1,
		Type:    txType,
		Nonce:   nonce,
		Signer:  pv.Address(),
		Tx:      payload,
	}
	if err = btx.Sign(chainId, pv); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalVoteTx(btx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	return printJSON(res)
}
