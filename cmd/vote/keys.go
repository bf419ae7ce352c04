package main

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/calehh/vote-app/crypto"
	"github.com/spf13/cobra"
)

type pubkeyArguments struct {
	Skey string
}

var pubkeyArgs pubkeyArguments

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Show the public key and address of a key file",
	RunE:  pubkeyRun,
}

type keygenArguments struct {
	Out string
}

var keygenArgs keygenArguments

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 key usable as a transaction signer",
	RunE:  keygenRun,
}

func init() {
	skeyFlag(pubkeyCmd, &pubkeyArgs.Skey)
	keygenCmd.Flags().StringVarP(&keygenArgs.Out, "out", "o", "./voter_key.json", "key file to write")
}

func printKey(pv *crypto.PV) {
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address())
}

func pubkeyRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.LoadFilePV(pubkeyArgs.Skey)
	if err != nil {
		return err
	}
	printKey(pv)
	return nil
}

func keygenRun(cmd *cobra.Command, args []string) error {
	statePath := filepath.Join(filepath.Dir(keygenArgs.Out), "voter_state.json")
	pv := crypto.GenFilePV(keygenArgs.Out, statePath)
	printKey(pv)
	return nil
}
