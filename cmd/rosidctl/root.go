package main

import (
	"github.com/spf13/cobra"

	"github.com/acoburn/trellis-rosid/internal/config"
)

// cfgFile holds an explicit --config path; when empty the search order is
// $HOME/.rosid.yaml then ./.rosid.yaml, per internal/config.InitFile.
var cfgFile string

// RootCmd is the top-level rosidctl command. It carries no Run of its own;
// every operation is a subcommand.
var RootCmd = &cobra.Command{
	Use:   "rosidctl",
	Short: "versioned RDF resource store",
	Long: `rosidctl operates an append-only, versioned RDF resource store:
every write is recorded as a timestamped journal block, reads can replay
any past instant, and a materialized cache serves the common case of
reading the latest state.

Configuration can be provided via command-line flags, environment
variables (ROSID_ prefix), or a YAML file, with flags taking precedence.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.rosid.yaml)")
	config.BindFlags(RootCmd)

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(writeCmd)
	RootCmd.AddCommand(purgeCmd)
	RootCmd.AddCommand(listCmd)
}

func initConfig() {
	if err := config.InitFile(cfgFile); err != nil {
		cobra.CheckErr(err)
	}
}
