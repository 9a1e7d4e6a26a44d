package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"inventorycam/internal/pipeline"
)

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
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderResult formats a capture result for a terminal.
func renderResult(result pipeline.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Capture %s at %s\n", result.CaptureID, result.CapturedAt.Format("2006-01-02 15:04:05"))
	if url := result.ArtifactURL(); url != "" {
		fmt.Fprintf(&b, "Image:   %s\n", url)
	} else {
		fmt.Fprintf(&b, "Image:   not published (%v)\n", result.PublishErr)
	}

	switch {
	case !result.Classified():
		fmt.Fprintf(&b, "Classification failed: %v", result.ClassifyErr)
	case len(result.Detections) == 0:
		b.WriteString("No items recognized")
	default:
		rows := make([][]string, 0, len(result.Detections))
		for _, d := range result.Detections {
			rows = append(rows, []string{
				d.Label,
				fmt.Sprintf("%.0f%%", d.Confidence*100),
				fmt.Sprintf("%d,%d", d.Box.X, d.Box.Y),
				fmt.Sprintf("%dx%d", d.Box.Width, d.Box.Height),
			})
		}
		b.WriteString(renderTable(
			[]string{"Item", "Confidence", "Position", "Size"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
	}

	return b.String()
}

func writeResultJSON(w io.Writer, result pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
