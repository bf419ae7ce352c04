package main

import (
	"context"
	"fmt"

	"github.com/calehh/vote-app/crypto"
	"github.com/calehh/vote-app/types"
	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	Skey    string
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show balance and nonce of an account",
	RunE:  accountRun,
}

type paramsArguments struct {
	Url string
}

var paramsArgs paramsArguments

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the chain parameters",
	RunE:  paramsRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address, defaults to the key file's")
	skeyFlag(accountCmd, &accountArgs.Skey)
	urlFlag(paramsCmd, &paramsArgs.Url)
}

// signerAddress resolves an explicit address, falling back to the key file.
func signerAddress(address string, skey string) (types.Address, error) {
	if address != "" {
		return types.ParseAddress(address)
	}
	pv, err := crypto.LoadFilePV(skey)
	if err != nil {
		return types.Address{}, err
	}
	return pv.Address(), nil
}

func accountRun(cmd *cobra.Command, args []string) error {
	addr, err := signerAddress(accountArgs.Address, accountArgs.Skey)
	if err != nil {
		return err
	}
	cli, err := newClient(accountArgs.Url)
	if err != nil {
		return err
	}
	act, err := queryAccount(context.Background(), cli, addr)
	if err != nil {
		return err
	}
	fmt.Printf("address:%v balance:%v nonce:%v\n", addr, act.Balance, act.Nonce)
	return nil
}

func paramsRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(paramsArgs.Url)
	if err != nil {
		return err
	}
	params, err := queryParams(context.Background(), cli)
	if err != nil {
		return err
	}
	return printJSON(params)
}
