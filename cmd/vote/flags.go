package main

import "github.com/spf13/cobra"

const defaultKeyPath = "./config/priv_validator_key.json"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "vote node rpc url")
}

func skeyFlag(cmd *cobra.Command, skey *string) {
	cmd.Flags().StringVarP(skey, "skeyPath", "s", defaultKeyPath, "private key path")
}

// txFlags registers the flags shared by every command that signs a transaction.
func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	skeyFlag(cmd, &args.Skey)
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "account nonce, queried from the node when 0")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed transaction instead of broadcasting it")
}
