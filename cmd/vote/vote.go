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

type voteArguments struct {
	txArguments
	Proposal string
	Up       bool
	Down     bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast the signer's vote on a proposal",
	Long: `Cast an up or down vote. A vote from an account outside the voter
registry, or a second vote, is accepted but not counted; use the ballot
command to check the outcome.`,
	RunE: voteRun,
}

type ballotArguments struct {
	Url      string
	Proposal string
	Voter    string
	Skey     string
}

var ballotArgs ballotArguments

var ballotCmd = &cobra.Command{
	Use:   "ballot",
	Short: "Show whether a voter's vote on a proposal counted",
	RunE:  ballotRun,
}

func init() {
	txFlags(voteCmd, &voteArgs.txArguments)
	voteCmd.Flags().StringVarP(&voteArgs.Proposal, "proposal", "p", "", "proposal location")
	voteCmd.Flags().BoolVarP(&voteArgs.Up, "up", "", false, "vote up")
	voteCmd.Flags().BoolVarP(&voteArgs.Down, "down", "", false, "vote down")
	voteCmd.MarkFlagsMutuallyExclusive("up", "down")
	voteCmd.MarkFlagsOneRequired("up", "down")
	_ = voteCmd.MarkFlagRequired("proposal")

	urlFlag(ballotCmd, &ballotArgs.Url)
	skeyFlag(ballotCmd, &ballotArgs.Skey)
	ballotCmd.Flags().StringVarP(&ballotArgs.Proposal, "proposal", "p", "", "proposal location")
	ballotCmd.Flags().StringVarP(&ballotArgs.Voter, "voter", "", "", "voter address, defaults to the key file's")
	_ = ballotCmd.MarkFlagRequired("proposal")
}

func voteRun(cmd *cobra.Command, args []string) error {
	loc, err := types.ParseAddress(voteArgs.Proposal)
	if err != nil {
		return fmt.Errorf("proposal: %w", err)
	}
	vote := types.VoteDown
	if voteArgs.Up {
		vote = types.VoteUp
	}
	cli, err := newClient(voteArgs.Url)
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
	registry, _, err := crypto.DeriveRegistryAddress(params.RegistryScope, p.Owner, loc, params.ProgramID)
	if err != nil {
		return err
	}
	return sendTx(ctx, cli, &voteArgs.txArguments, tx.TxTypeCastVote, &tx.CastVoteTx{
		Vote:     uint8(vote),
		Proposal: loc,
		Registry: registry,
	})
}

func ballotRun(cmd *cobra.Command, args []string) error {
	loc, err := types.ParseAddress(ballotArgs.Proposal)
	if err != nil {
		return fmt.Errorf("proposal: %w", err)
	}
	voter, err := signerAddress(ballotArgs.Voter, ballotArgs.Skey)
	if err != nil {
		return err
	}
	cli, err := newClient(ballotArgs.Url)
	if err != nil {
		return err
	}
	data := append(loc.Bytes(), voter.Bytes()...)
	var status types.BallotStatus
	if err := abciQuery(context.Background(), cli, app.QueryPathBallots, data, &status); err != nil {
		return err
	}
	return printJSON(status)
}
