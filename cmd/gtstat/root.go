package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/gtensor/genotype"
	"github.com/born-ml/gtensor/internal/config"
	"github.com/born-ml/gtensor/internal/logutil"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "gtstat",
		Short:        "Genotype tensor statistics",
		SilenceUsage: true,
	}
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		return setup(configPath)
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (GENOTYPE_* variables override it)")

	root.AddCommand(newSimulateCmd(), newComputeCmd(), newOpsCmd(), newVersionCmd())
	return root
}

// setup loads the configuration and installs it process-wide.
func setup(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logutil.Install(os.Stderr, level)
	cfg.Apply()
	genotype.SetEngineOptions(cfg.EngineOptions())
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gtstat %s\n", version)
		},
	}
}
