package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gtensor/tensor"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GENOTYPE_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// body drops the summary line, which names the input kind.
func body(s string) string {
	_, rest, _ := strings.Cut(s, "\n")
	return rest
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "gtstat "+version+"\n", out)
}

func TestOps(t *testing.T) {
	out, err := execute(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "OPERATION")
	assert.Contains(t, out, "count_alleles")
	assert.Contains(t, out, "dense")
	assert.Contains(t, out, "chunked")
}

func TestSimulateChunkedMatchesDense(t *testing.T) {
	for _, op := range []string{"count-alleles", "is-het", "allele-counts-to-frequencies", "allele-counts-locate-hom"} {
		t.Run(op, func(t *testing.T) {
			args := []string{"simulate", "--variants", "25", "--samples", "12", "--seed", "7", "--op", op, "--rows", "30"}
			dense, err := execute(t, args...)
			require.NoError(t, err)
			chunked, err := execute(t, append(args, "--chunks", "4,5")...)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(dense, op+": dense [25 12 2]"), dense)
			assert.True(t, strings.HasPrefix(chunked, op+": chunked-graph [25 12 2]"), chunked)
			assert.Equal(t, body(dense), body(chunked))
		})
	}
}

func TestSimulateLocateCall(t *testing.T) {
	args := []string{"simulate", "--variants", "6", "--samples", "4", "--ploidy", "3",
		"--max-allele", "0", "--missing-rate", "0", "--op", "locate-call"}
	dense, err := execute(t, args...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dense, "locate-call: dense [6 4 3] -> bool [6 4]"), dense)
	// Every call is 0/0/0 when only the reference allele is drawn.
	assert.NotContains(t, body(dense), "false")
	assert.Equal(t, 6*4, strings.Count(dense, "true"))

	chunked, err := execute(t, append(args, "--chunks", "2,3")...)
	require.NoError(t, err)
	assert.Equal(t, body(dense), body(chunked))
}

func TestSimulateAllMissing(t *testing.T) {
	out, err := execute(t, "simulate", "--variants", "3", "--samples", "2", "--missing-rate", "1", "--op", "is-called")
	require.NoError(t, err)
	assert.NotContains(t, body(out), "true")
	assert.Equal(t, 3*2, strings.Count(out, "false"))
}

func TestSimulateRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown op", []string{"--op", "nope"}, "unknown --op"},
		{"ploidy", []string{"--ploidy", "0"}, "--ploidy"},
		{"missing rate", []string{"--missing-rate", "2"}, "--missing-rate"},
		{"chunks", []string{"--chunks", "4"}, "--chunks"},
		{"chunk size", []string{"--chunks", "0,3"}, "positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"simulate", "--variants", "4", "--samples", "4"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtstat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("split_every: 1\n"), 0o600))

	_, err := execute(t, "--config", path, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split_every")

	require.NoError(t, os.WriteFile(path, []byte("split_every: 3\nworkers: 2\n"), 0o600))
	_, err = execute(t, "--config", path, "version")
	require.NoError(t, err)
}

func TestParseChunks(t *testing.T) {
	v, s, err := parseChunks("10, 3")
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 3, s)

	for _, bad := range []string{"", "1", "1,2,3", "a,2", "-1,2"} {
		_, _, err := parseChunks(bad)
		assert.Error(t, err, bad)
	}
}

func TestRenderTensorTruncates(t *testing.T) {
	r, err := tensor.FromSlice(make([]int32, 5*10), tensor.Shape{5, 10})
	require.NoError(t, err)

	var buf bytes.Buffer
	renderTensor(&buf, r, 2)
	out := buf.String()
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "... 3 more rows")
	assert.NotContains(t, out, "8", "columns past the cap are hidden")
}

func TestSaveThenCompute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.gts")
	simulated, err := execute(t, "simulate", "--variants", "9", "--samples", "6", "--chunks", "4,4",
		"--op", "allele-counts-allelism", "--save", path)
	require.NoError(t, err)

	computed, err := execute(t, "compute", "--store", path, "--op", "allele-counts-allelism")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(computed, "allele-counts-allelism: chunked-store [9 6 2]"), computed)
	assert.Equal(t, body(simulated), body(computed))

	_, err = execute(t, "compute", "--store", filepath.Join(t.TempDir(), "none.gts"))
	assert.Error(t, err)
	_, err = execute(t, "compute", "--store", path, "--op", "nope")
	assert.ErrorContains(t, err, "unknown --op")
}
