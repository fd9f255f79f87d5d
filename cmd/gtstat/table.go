package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/born-ml/gtensor/tensor"
)

// maxColumns caps the printed columns of wide results.
const maxColumns = 8

// formatAt renders element i of r.
func formatAt(r *tensor.RawTensor, i int) string {
	switch r.DType() {
	case tensor.Bool:
		return strconv.FormatBool(r.AsBool()[i])
	case tensor.Int8:
		return strconv.Itoa(int(r.AsInt8()[i]))
	case tensor.Int32:
		return strconv.Itoa(int(r.AsInt32()[i]))
	case tensor.Float32:
		return strconv.FormatFloat(float64(r.AsFloat32()[i]), 'f', 3, 32)
	default:
		return "?"
	}
}

// renderTensor prints up to rows leading rows of a rank 1 to 3 tensor. A
// trailing third axis is shown as slash-joined values per cell.
func renderTensor(w io.Writer, r *tensor.RawTensor, rows int) {
	shape := r.Shape()
	cols, depth := 1, 1
	if len(shape) > 1 {
		cols = shape[1]
	}
	if len(shape) > 2 {
		depth = shape[2]
	}

	shown := min(cols, maxColumns)
	header := []string{"ROW"}
	if len(shape) == 1 {
		header = append(header, "VALUE")
	} else {
		for j := 0; j < shown; j++ {
			header = append(header, strconv.Itoa(j))
		}
		if shown < cols {
			header = append(header, "...")
		}
	}

	n := min(rows, shape[0])
	data := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		line := []string{strconv.Itoa(i)}
		for j := 0; j < shown; j++ {
			cell := make([]string, depth)
			for k := range cell {
				cell[k] = formatAt(r, (i*cols+j)*depth+k)
			}
			line = append(line, strings.Join(cell, "/"))
		}
		if shown < cols {
			line = append(line, "...")
		}
		data = append(data, line)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("  ")
	table.AppendBulk(data)
	table.Render()

	if shape[0] > n {
		fmt.Fprintf(w, "... %d more rows\n", shape[0]-n)
	}
}
