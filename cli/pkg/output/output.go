// Package output prints CLI results as colored messages, tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/telhawk-systems/telhawk-kpi/cli/pkg/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

func Success(w io.Writer, format string, a ...interface{}) {
	successColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func Error(w io.Writer, format string, a ...interface{}) {
	errorColor.Fprintf(w, "✗ "+format+"\n", a...)
}

func Info(w io.Writer, format string, a ...interface{}) {
	infoColor.Fprintf(w, format+"\n", a...)
}

func Warn(w io.Writer, format string, a ...interface{}) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", a...)
}

func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

func (t *Table) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Render writes the table with columns padded to their widest cell.
// Width is measured in runes.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len([]rune(header))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	pad := func(s string, width int) string {
		return s + strings.Repeat(" ", width-len([]rune(s)))
	}

	for i, header := range t.headers {
		headerColor.Fprintf(w, "%s  ", pad(header, widths[i]))
	}
	fmt.Fprintln(w)

	for i := range t.headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprint(w, pad(cell, widths[i])+"  ")
			}
		}
		fmt.Fprintln(w)
	}
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as block characters scaled to the maximum.
// All-zero input renders as the lowest block.
func Sparkline(values []int64) string {
	var max int64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if max > 0 {
			idx = int(v * int64(len(sparkBlocks)-1) / max)
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}
