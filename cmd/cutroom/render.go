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
	"github.com/spf13/cobra"
)

// column describes one table column.
type column struct {
	title string
	right bool
}

func col(title string) column        { return column{title: title} }
func numericCol(title string) column { return column{title: title, right: true} }

// renderTable draws rows under the given columns. Short rows are padded.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		align := text.AlignLeft
		if c.right {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type level int

const (
	levelInfo level = iota
	levelOK
	levelWarn
	levelError
)

var levelStyles = map[level]struct {
	label string
	color text.Color
}{
	levelInfo:  {"INFO", text.FgBlue},
	levelOK:    {"OK", text.FgGreen},
	levelWarn:  {"WARN", text.FgYellow},
	levelError: {"ERROR", text.FgRed},
}

const reportLabelWidth = 20

// report collects status lines grouped into titled sections.
type report struct {
	out      io.Writer
	colorize bool
	sections int
}

func newReport(out io.Writer) *report {
	return &report{out: out, colorize: isTerminal(out)}
}

func (r *report) section(title string) {
	if r.sections > 0 {
		fmt.Fprintln(r.out)
	}
	r.sections++
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	fmt.Fprintln(r.out, r.paint(text.FgBlue, heading))
	fmt.Fprintln(r.out, r.paint(text.FgBlue, rule))
}

func (r *report) line(label string, lvl level, message string) {
	fmt.Fprintln(r.out, r.format(label, lvl, message))
}

func (r *report) format(label string, lvl level, message string) string {
	style := levelStyles[lvl]
	badge := "[" + style.label + "]"
	if message != "" {
		badge += " " + message
	}
	return r.paint(style.color, fmt.Sprintf("  %-*s %s", reportLabelWidth, label+":", badge))
}

func (r *report) paint(color text.Color, s string) string {
	if !r.colorize {
		return s
	}
	return color.Sprint(s)
}

func (r *report) text(s string) {
	fmt.Fprintln(r.out, s)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
