package main

import (
	"os"

	"github.com/spf13/cobra"
)

type exitCode int

const (
	exitCodeSuccess exitCode = 0
	exitCodeError   exitCode = 1
)

func main() {
	os.Exit(int(run(os.Args[1:])))
}

func run(args []string) exitCode {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "kisanmitra",
		Short:        "KisanMitra farming advisory service.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}

	defaultConfig := "config.yaml"
	if p := os.Getenv("KISANMITRA_CONFIG"); p != "" {
		defaultConfig = p
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "path to the YAML config file (optional)")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newAskCmd(&configPath),
		newStatsCmd(&configPath),
	)
	return rootCmd
}
