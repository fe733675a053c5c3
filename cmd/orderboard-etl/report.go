package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"orderboard/internal/core"
	"orderboard/internal/pipeline"
)

// printReport writes a cleaning summary followed by every aggregate table.
func printReport(w io.Writer, tables []core.Table, report pipeline.CleanReport) {
	fmt.Fprintf(w, "Loaded %s rows, removed %s duplicates\n\n",
		humanize.Comma(int64(report.InputRows)),
		humanize.Comma(int64(report.DuplicatesRemoved)))

	for _, t := range tables {
		fmt.Fprintln(w, t.Name)
		renderTable(w, t)
		fmt.Fprintln(w)
	}
}

func renderTable(w io.Writer, t core.Table) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Headers())
	tw.SetAutoFormatHeaders(false)

	align := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		if c.Kind.IsNumeric() {
			align[i] = tablewriter.ALIGN_RIGHT
		} else {
			align[i] = tablewriter.ALIGN_LEFT
		}
	}
	tw.SetColumnAlignment(align)

	for i := range t.Rows {
		row := make([]string, len(t.Columns))
		for j := range t.Columns {
			row[j] = t.Formatted(i, j)
		}
		tw.Append(row)
	}
	tw.Render()
}
