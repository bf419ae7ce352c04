package main

import (
	"fmt"

	"github.com/calehh/vote-app/crypto"
	"github.com/calehh/vote-app/types"
	"github.com/spf13/cobra"
)

type deriveArguments struct {
	ProgramID string
	Scope     string
	Seed      string
	Owner     string
	Proposal  string
}

var deriveArgs deriveArguments

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive proposal and voter registry locations offline",
	Long: `Derive the proposal location of --seed and --owner. The voter registry
location of the owner is derived for the proposal, or for --proposal when the
seed is omitted.`,
	RunE: deriveRun,
}

func init() {
	deriveCmd.Flags().StringVarP(&deriveArgs.ProgramID, "program", "p", types.DefaultProgramID, "program id mixed into derivation")
	deriveCmd.Flags().StringVarP(&deriveArgs.Scope, "scope", "", string(types.RegistryScopeProposer), "voter registry scope, proposer or proposal")
	deriveCmd.Flags().StringVarP(&deriveArgs.Seed, "seed", "", "", "proposal seed")
	deriveCmd.Flags().StringVarP(&deriveArgs.Owner, "owner", "o", "", "proposal owner address")
	deriveCmd.Flags().StringVarP(&deriveArgs.Proposal, "proposal", "", "", "proposal location")
}

func deriveRun(cmd *cobra.Command, args []string) error {
	programID, err := types.ParseAddress(deriveArgs.ProgramID)
	if err != nil {
		return err
	}
	owner, err := types.ParseAddress(deriveArgs.Owner)
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	scope := types.RegistryScope(deriveArgs.Scope)
	if scope != types.RegistryScopeProposer && scope != types.RegistryScopeProposal {
		return fmt.Errorf("unknown registry scope %q", deriveArgs.Scope)
	}

	var proposal types.Address
	switch {
	case deriveArgs.Seed != "":
		var bump uint8
		proposal, bump, err = crypto.DeriveProposalAddress(deriveArgs.Seed, owner, programID)
		if err != nil {
			return err
		}
		fmt.Printf("proposal: %v bump: %d\n", proposal, bump)
	case deriveArgs.Proposal != "":
		proposal, err = types.ParseAddress(deriveArgs.Proposal)
		if err != nil {
			return fmt.Errorf("proposal: %w", err)
		}
	default:
		return fmt.Errorf("either --seed or --proposal is required")
	}
	registry, bump, err := crypto.DeriveRegistryAddress(scope, owner, proposal, programID)
	if err != nil {
		return err
	}
	fmt.Printf("registry: %v bump: %d\n", registry, bump)
	return nil
}
