package main

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "gbtctl",
		Short:         "GB/T 32960 gateway and frame codec tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "gateway config file (TOML)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level")

	root.AddCommand(
		newServeCmd(flags),
		newSimulateCmd(flags),
		newDecodeCmd(),
		newRespondCmd(),
		newBuildCmd(),
		newConfigCmd(flags),
	)
	return root
}
