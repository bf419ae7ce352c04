package main

import (
	"fmt"
	"os"
)

func main() {
	clCmd.AddCommand(initCmd)
	clCmd.AddCommand(versionCmd)
	clCmd.AddCommand(accountCmd)
	clCmd.AddCommand(pubkeyCmd)
	clCmd.AddCommand(keygenCmd)
	clCmd.AddCommand(deriveCmd)
	clCmd.AddCommand(paramsCmd)
	clCmd.AddCommand(proposalCmd)
	clCmd.AddCommand(votersCmd)
	clCmd.AddCommand(voteCmd)
	clCmd.AddCommand(ballotCmd)
	if err := clCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
