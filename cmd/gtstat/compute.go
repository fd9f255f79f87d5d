package main

import (
	"github.com/spf13/cobra"

	"github.com/born-ml/gtensor/tensor"
)

func newComputeCmd() *cobra.Command {
	var (
		path      string
		op        string
		maxAllele int
		rows      int
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Run an operation over genotypes saved by simulate --save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOp(op); err != nil {
				return err
			}
			store, err := tensor.LoadStore(path)
			if err != nil {
				return err
			}
			return runPipeline(cmd, store, op, maxAllele, rows)
		},
	}

	f := cmd.Flags()
	f.StringVar(&path, "store", "", ".gts file to read")
	f.StringVar(&op, "op", "count-alleles", "operation to run")
	f.IntVar(&maxAllele, "max-allele", 3, "highest allele index to count")
	f.IntVar(&rows, "rows", 10, "leading rows to print")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}
