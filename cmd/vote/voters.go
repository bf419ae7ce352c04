package main

import (
	"context"
	"fmt"

	"github.com/calehh/vote-app/app"
	"github.com/calehh/vote-app/crypto"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
	"github.com/spf13/cobra"
)

var votersCmd = &cobra.Command{
	Use:   "voters",
	Short: "Register and inspect voter registries",
}

type registerVotersArguments struct {
	txArguments
	Proposal string
	Voters   []string
}

var registerVotersArgs registerVotersArguments

var registerVotersCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the voters of a proposal owned by the signer",
	RunE:  registerVotersRun,
}

type showVotersArguments struct {
	Url      string
	Registry string
}

var showVotersArgs showVotersArguments

var showVotersCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a voter registry",
	RunE:  showVotersRun,
}

func init() {
	txFlags(registerVotersCmd, &registerVotersArgs.txArguments)
	registerVotersCmd.Flags().StringVarP(&registerVotersArgs.Proposal, "proposal", "p", "", "proposal location")
	registerVotersCmd.Flags().StringSliceVarP(&registerVotersArgs.Voters, "voter", "", nil, "voter address, repeatable")
	_ = registerVotersCmd.MarkFlagRequired("proposal")

	urlFlag(showVotersCmd, &showVotersArgs.Url)
	showVotersCmd.Flags().StringVarP(&showVotersArgs.Registry, "registry", "r", "", "voter registry location")
	_ = showVotersCmd.MarkFlagRequired("registry")

	votersCmd.AddCommand(registerVotersCmd)
	votersCmd.AddCommand(showVotersCmd)
}

func registerVotersRun(cmd *cobra.Command, args []string) error {
	loc, err := types.ParseAddress(registerVotersArgs.Proposal)
	if err != nil {
		return fmt.Errorf("proposal: %w", err)
	}
	voters := make([]types.Address, 0, len(registerVotersArgs.Voters))
	for _, s := range registerVotersArgs.Voters {
		v, err := types.ParseAddress(s)
		if err != nil {
			return fmt.Errorf("voter: %w", err)
		}
		voters = append(voters, v)
	}
	pv, err := crypto.LoadFilePV(registerVotersArgs.Skey)
	if err != nil {
		return err
	}
	cli, err := newClient(registerVotersArgs.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	params, err := queryParams(ctx, cli)
	if err != nil {
		return err
	}
	p, err := queryProposal(ctx, cli, loc)
	if err != nil {
		return err
	}
	registry, bump, err := crypto.DeriveRegistryAddress(params.RegistryScope, pv.Address(), loc, params.ProgramID)
	if err != nil {
		return err
	}
	fmt.Printf("registry: %v bump: %d\n", registry, bump)
	return sendTx(ctx, cli, &registerVotersArgs.txArguments, tx.TxTypeRegisterVoters, &tx.RegisterVotersTx{
		ProposalId: p.Id,
		Voters:     voters,
		Proposal:   loc,
		Registry:   registry,
	})
}

func showVotersRun(cmd *cobra.Command, args []string) error {
	loc, err := types.ParseAddress(showVotersArgs.Registry)
	if err != nil {
		return err
	}
	cli, err := newClient(showVotersArgs.Url)
	if err != nil {
		return err
	}
	var registry types.VoterRegistry
	if err := abciQuery(context.Background(), cli, app.QueryPathVoters, loc.Bytes(), &registry); err != nil {
		return err
	}
	return printJSON(registry)
}
