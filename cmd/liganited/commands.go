package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liganite/liganite/config"
	"github.com/liganite/liganite/tags"
	"github.com/liganite/liganite/wallet"
)

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate an encrypted account keystore",
	Long: `Generate a new ed25519 account key and save it encrypted with the
password from LIGANITE_KEYSTORE_PASSWORD.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		secrets, err := config.LoadSecrets()
		if err != nil {
			return err
		}
		if secrets.KeystorePassword == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: LIGANITE_KEYSTORE_PASSWORD not set, keystore uses an empty password")
		}
		out, _ := cmd.Flags().GetString("out")

		w, err := wallet.Generate(cfg.Genesis.ChainID)
		if err != nil {
			return err
		}
		if err := wallet.SaveKey(out, secrets.KeystorePassword, w.PrivKey()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Account: %s\nSaved to: %s\n", w.Account(), out)
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Print the tag vocabulary loaded at genesis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		vocab := cfg.Genesis.Tags
		if len(vocab) == 0 {
			vocab = tags.Default
		}
		if err := tags.Validate(vocab); err != nil {
			return err
		}
		for i, tag := range vocab {
			fmt.Fprintf(cmd.OutOrStdout(), "%5d  %s\n", i, tag)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "liganite.json"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	genkeyCmd.Flags().StringP("out", "o", "keystore.json", "keystore file to write")
}
