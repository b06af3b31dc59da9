package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"deckify/internal/review"
)

const maxCellWidth = 36

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         maxCellWidth,
			WidthMaxEnforcer: text.WrapSoft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderCardTable(entries []review.Entry) string {
	headers := []string{"#", "Decision", "Expression", "Reading", "Meaning", "Conf", "Pages", "Review"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		flag := ""
		if entry.NeedsReview {
			flag = "check"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(entry.Decision),
			entry.Expression,
			entry.Reading,
			entry.Meaning,
			formatConfidence(entry.Confidence),
			entry.SourcePage,
			flag,
		})
	}
	return renderTable(headers, rows, aligns)
}

func formatConfidence(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func singleLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
