package harness

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Format of a report.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats supported by [Report].
var Formats = []Format{FormatTable, FormatMarkdown, FormatJSON}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	baselineStyle = cellStyle.Foreground(lipgloss.Color("10"))
	headers       = []string{"Method", "Mean", "Ratio", "Allocated", "Allocs/op"}
)

// Report writes ranked results in the format f.
func Report(w io.Writer, f Format, r []Result) error {
	switch f {
	case FormatJSON:
		b, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case FormatTable, "":
		_, err := fmt.Fprintln(w, render(r, lipgloss.RoundedBorder(), true))
		return err
	case FormatMarkdown:
		_, err := fmt.Fprintln(w, render(r, lipgloss.MarkdownBorder(), false))
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

func render(r []Result, border lipgloss.Border, styled bool) string {
	t := table.New().Border(border).Headers(headers...)
	if !styled {
		t = t.BorderTop(false).BorderBottom(false)
	}
	for _, x := range r {
		t.Row(name(x), duration(x.NsPerOp), strconv.FormatFloat(x.Ratio, 'f', 2, 64),
			strconv.FormatInt(x.BytesPerOp, 10)+" B", strconv.FormatInt(x.AllocsPerOp, 10))
	}
	if styled {
		t.StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(r) && r[row].Baseline:
				return baselineStyle
			}
			return cellStyle
		})
	}
	return t.Render()
}

func name(x Result) string {
	if x.Baseline {
		return x.Name + " *"
	}
	return x.Name
}

func duration(ns float64) string {
	switch {
	case ns >= 1e6:
		return strconv.FormatFloat(ns/1e6, 'f', 3, 64) + " ms"
	case ns >= 1e3:
		return strconv.FormatFloat(ns/1e3, 'f', 3, 64) + " us"
	}
	return strconv.FormatFloat(ns, 'f', 3, 64) + " ns"
}
