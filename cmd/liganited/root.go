package main

import (
	"github.com/spf13/cobra"

	"github.com/liganite/liganite/config"
)

var (
	version = "dev"
	cfgFile string
	cfg     *config.Config
	cfgErr  error
)

var rootCmd = &cobra.Command{
	Use:           "liganited",
	Short:         "Digital-goods marketplace node",
	Long:          `liganited keeps the publisher registry, game catalog and escrow orders of a liganite marketplace and serves them over JSON-RPC.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file, JSON or YAML (default: built-in development config)")

	rootCmd.AddCommand(runCmd, genkeyCmd, tagsCmd, configCmd)
}

// initConfig loads the config once flags are parsed. The error is reported
// by the commands that need a config.
func initConfig() {
	cfg, cfgErr = config.Load(cfgFile)
}

func loadedConfig() (*config.Config, error) {
	return cfg, cfgErr
}
