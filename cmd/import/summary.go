package main

import (
	"io"
	"os"
	"strconv"

	"github.com/bookdatabase/bookdb/pkg/importer"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

func renderSummary(summary *importer.Summary, w io.Writer) string {
	tw := table.NewWriter()
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.SetTitle("Import Summary")
	tw.AppendHeader(table.Row{"Entity", "Created", "Skipped", "Total"})
	for _, row := range summary.Rows() {
		tw.AppendRow(table.Row{row.Entity, row.Created, row.Skipped, row.Total})
	}
	tw.AppendFooter(table.Row{"Aliases linked", strconv.Itoa(summary.Aliases), "", ""})
	tw.AppendFooter(table.Row{"Covers", strconv.Itoa(summary.Covers), strconv.Itoa(summary.CoverFailures) + " failed", ""})
	tw.AppendFooter(table.Row{"Warnings", strconv.Itoa(summary.Warnings), "", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
