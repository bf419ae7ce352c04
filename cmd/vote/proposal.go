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

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Create and inspect proposals",
}

type newProposalArguments struct {
	txArguments
	Seed        string
	Description string
	Id          uint64
}

var newProposalArgs newProposalArguments

var newProposalCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a proposal owned by the signer",
	RunE:  newProposalRun,
}

type showProposalArguments struct {
	Url      string
	Location string
}

var showProposalArgs showProposalArguments

var showProposalCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a proposal, or every proposal when no location is given",
	RunE:  showProposalRun,
}

func init() {
	txFlags(newProposalCmd, &newProposalArgs.txArguments)
	newProposalCmd.Flags().StringVarP(&newProposalArgs.Seed, "seed", "", "", "seed the proposal location is derived from")
	newProposalCmd.Flags().StringVarP(&newProposalArgs.Description, "description", "", "", "proposal description")
	newProposalCmd.Flags().Uint64VarP(&newProposalArgs.Id, "id", "i", 0, "proposal id")
	_ = newProposalCmd.MarkFlagRequired("seed")

	urlFlag(showProposalCmd, &showProposalArgs.Url)
	showProposalCmd.Flags().StringVarP(&showProposalArgs.Location, "location", "l", "", "proposal location")

	proposalCmd.AddCommand(newProposalCmd)
	proposalCmd.AddCommand(showProposalCmd)
}

func newProposalRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.LoadFilePV(newProposalArgs.Skey)
	if err != nil {
		return err
	}
	cli, err := newClient(newProposalArgs.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	params, err := queryParams(ctx, cli)
	if err != nil {
		return err
	}
	loc, bump, err := crypto.DeriveProposalAddress(newProposalArgs.Seed, pv.Address(), params.ProgramID)
	if err != nil {
		return err
	}
	fmt.Printf("proposal: %v bump: %d\n", loc, bump)
	return sendTx(ctx, cli, &newProposalArgs.txArguments, tx.TxTypeCreateProposal, &tx.CreateProposalTx{
		Seed:        newProposalArgs.Seed,
		Description: newProposalArgs.Description,
		Id:          newProposalArgs.Id,
		Proposal:    loc,
	})
}

func showProposalRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(showProposalArgs.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if showProposalArgs.Location == "" {
		var entries []app.ProposalEntry
		if err := abciQuery(ctx, cli, app.QueryPathProposals, nil, &entries); err != nil {
			return err
		}
		return printJSON(entries)
	}
	loc, err := types.ParseAddress(showProposalArgs.Location)
	if err != nil {
		return err
	}
	p, err := queryProposal(ctx, cli, loc)
	if err != nil {
		return err
	}
	return printJSON(p)
}
