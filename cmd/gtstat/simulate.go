package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/gtensor/genotype"
	"github.com/born-ml/gtensor/tensor"
)

type simulateOptions struct {
	variants    int
	samples     int
	ploidy      int
	maxAllele   int
	missingRate float64
	seed        int64
	chunks      string
	op          string
	rows        int
	save        string
}

type pipeline func(gt tensor.Tensor, maxAllele int) (tensor.Tensor, error)

func direct(f func(tensor.Tensor) (tensor.Tensor, error)) pipeline {
	return func(gt tensor.Tensor, _ int) (tensor.Tensor, error) { return f(gt) }
}

// afterCounts runs f on the per-variant allele counts of gt.
func afterCounts(f func(tensor.Tensor) (tensor.Tensor, error)) pipeline {
	return func(gt tensor.Tensor, maxAllele int) (tensor.Tensor, error) {
		ac, err := genotype.CountAlleles(gt, maxAllele)
		if err != nil {
			return nil, err
		}
		return f(ac)
	}
}

// afterSampleCounts runs f on the per-sample allele counts of gt.
func afterSampleCounts(f func(tensor.Tensor) (tensor.Tensor, error)) pipeline {
	return func(gt tensor.Tensor, maxAllele int) (tensor.Tensor, error) {
		ac, err := genotype.ToAlleleCounts(gt, maxAllele)
		if err != nil {
			return nil, err
		}
		return f(ac)
	}
}

// homRef locates cells called homozygous for the reference allele.
func homRef(gt tensor.Tensor, _ int) (tensor.Tensor, error) {
	var call []int8
	if s := gt.Shape(); len(s) == 3 {
		call = make([]int8, s[2])
	}
	return genotype.LocateCall(gt, call)
}

var pipelines = map[string]pipeline{
	"is-called":                    direct(genotype.IsCalled),
	"is-missing":                   direct(genotype.IsMissing),
	"is-hom":                       direct(genotype.IsHom),
	"is-het":                       direct(genotype.IsHet),
	"locate-call":                  homRef,
	"count-alleles":                genotype.CountAlleles,
	"to-allele-counts":             genotype.ToAlleleCounts,
	"to-allele-counts-melt":        genotype.ToAlleleCountsMelt,
	"allele-counts-to-frequencies": afterCounts(genotype.AlleleCountsToFrequencies),
	"allele-counts-max-allele":     afterCounts(genotype.AlleleCountsMaxAllele),
	"allele-counts-allelism":       afterCounts(genotype.AlleleCountsAllelism),
	"locate-variant":               afterCounts(genotype.LocateVariant),
	"locate-non-variant":           afterCounts(genotype.LocateNonVariant),
	"locate-segregating":           afterCounts(genotype.LocateSegregating),
	"allele-counts-locate-hom":     afterSampleCounts(genotype.AlleleCountsLocateHom),
	"allele-counts-locate-het":     afterSampleCounts(genotype.AlleleCountsLocateHet),
}

func checkOp(op string) error {
	if _, ok := pipelines[op]; !ok {
		return fmt.Errorf("unknown --op %q (want one of %s)", op, strings.Join(pipelineNames(), ", "))
	}
	return nil
}

func pipelineNames() []string {
	names := make([]string, 0, len(pipelines))
	for name := range pipelines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an operation over a random genotype tensor",
		Long: "Builds a random (variants, samples, ploidy) genotype tensor, optionally chunks it,\n" +
			"runs --op through the genotype package and prints the materialized result.\n\n" +
			"Operations: " + strings.Join(pipelineNames(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.variants, "variants", 1000, "number of variants")
	f.IntVar(&opts.samples, "samples", 100, "number of samples")
	f.IntVar(&opts.ploidy, "ploidy", 2, "alleles per call")
	f.IntVar(&opts.maxAllele, "max-allele", 3, "highest allele index to simulate and count")
	f.Float64Var(&opts.missingRate, "missing-rate", 0.05, "fraction of calls set missing")
	f.Int64Var(&opts.seed, "seed", 1, "random seed")
	f.StringVar(&opts.chunks, "chunks", "", "block sizes as variants,samples; empty computes densely")
	f.StringVar(&opts.op, "op", "count-alleles", "operation to run")
	f.IntVar(&opts.rows, "rows", 10, "leading rows to print")
	f.StringVar(&opts.save, "save", "", "also write the chunked genotypes to this .gts file")
	return cmd
}

func (o simulateOptions) validate() error {
	var errs []error
	if o.variants < 0 || o.samples < 0 {
		errs = append(errs, fmt.Errorf("--variants and --samples must be >= 0"))
	}
	if o.ploidy < 1 {
		errs = append(errs, fmt.Errorf("--ploidy must be >= 1, got %d", o.ploidy))
	}
	if o.maxAllele < 0 || o.maxAllele > 127 {
		errs = append(errs, fmt.Errorf("--max-allele must be in [0, 127], got %d", o.maxAllele))
	}
	if o.missingRate < 0 || o.missingRate > 1 {
		errs = append(errs, fmt.Errorf("--missing-rate must be in [0, 1], got %g", o.missingRate))
	}
	if err := checkOp(o.op); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// parseChunks reads "v,s" into block sizes along the variant and sample axes.
func parseChunks(s string) (variants, samples int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--chunks %q: want variants,samples", s)
	}
	sizes := make([]int, 2)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("--chunks %q: block sizes must be positive integers", s)
		}
		sizes[i] = n
	}
	return sizes[0], sizes[1], nil
}

// simulate draws allele indices uniformly in [0, maxAllele] and marks whole
// calls missing with probability missingRate.
func simulate(o simulateOptions) (*tensor.RawTensor, error) {
	rng := rand.New(rand.NewSource(o.seed))
	data := make([]int8, o.variants*o.samples*o.ploidy)
	for c := 0; c < o.variants*o.samples; c++ {
		call := data[c*o.ploidy : (c+1)*o.ploidy]
		if rng.Float64() < o.missingRate {
			for k := range call {
				call[k] = -1
			}
			continue
		}
		for k := range call {
			call[k] = int8(rng.Intn(o.maxAllele + 1))
		}
	}
	return tensor.FromSlice(data, tensor.Shape{o.variants, o.samples, o.ploidy})
}

func runSimulate(cmd *cobra.Command, o simulateOptions) error {
	if err := o.validate(); err != nil {
		return err
	}
	gt, err := simulate(o)
	if err != nil {
		return err
	}

	chunks := tensor.Single(gt.Shape())
	if o.chunks != "" {
		v, s, err := parseChunks(o.chunks)
		if err != nil {
			return err
		}
		chunks = tensor.Regular(gt.Shape(), v, s)
	}

	var input tensor.Tensor = gt
	if o.chunks != "" {
		if input, err = tensor.Chunk(gt, chunks); err != nil {
			return err
		}
	}
	if o.save != "" {
		store, err := tensor.NewStore(gt, chunks)
		if err != nil {
			return err
		}
		meta := map[string]string{"generator": "gtstat simulate", "seed": strconv.FormatInt(o.seed, 10)}
		if err := tensor.SaveStore(o.save, store, meta); err != nil {
			return err
		}
		slog.Info("saved genotypes", "path", o.save, "blocks", chunks.Grid())
	}

	return runPipeline(cmd, input, o.op, o.maxAllele, o.rows)
}

// runPipeline runs op over input, materializes the result and prints it.
func runPipeline(cmd *cobra.Command, input tensor.Tensor, op string, maxAllele, rows int) error {
	start := time.Now()
	result, err := pipelines[op](input, maxAllele)
	if err != nil {
		return err
	}
	out, err := genotype.Compute(cmd.Context(), result)
	if err != nil {
		return err
	}
	slog.Debug("pipeline finished", "op", op, "input", input.Kind(), "elapsed", time.Since(start))

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s %v -> %s %v\n", op, input.Kind(), []int(input.Shape()), out.DType(), []int(out.Shape()))
	renderTensor(w, out, rows)
	return nil
}
