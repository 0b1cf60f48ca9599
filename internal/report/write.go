package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TableOptions controls WriteTable and WriteTree output.
type TableOptions struct {
	Color     bool // colorize headers and names
	NameWidth int  // function column width (default 40)
	MaxDepth  int  // WriteTree depth limit (0 = unlimited)
}

func (o TableOptions) nameWidth() int {
	if o.NameWidth <= 0 {
		return 40
	}
	return o.NameWidth
}

func styled(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// fit pads or truncates s to exactly width terminal cells.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		if width <= 3 {
			s = runewidth.Truncate(s, width, "")
		} else {
			s = runewidth.Truncate(s, width, "...")
		}
	}
	return runewidth.FillRight(s, width)
}

// WriteTable writes stats as an aligned table.
func WriteTable(w io.Writer, stats []FunctionStat, opts TableOptions) error {
	width := opts.nameWidth()
	header := styled(opts.Color, color.Bold)
	name := styled(opts.Color, color.FgCyan)
	p := message.NewPrinter(language.English)

	if _, err := fmt.Fprintf(w, "%s %s %12s %12s %12s %7s  %s\n",
		header.Sprint(fit("function", width)),
		header.Sprintf("%10s", "calls"),
		"local(s)", "total(s)", "avg(s)", "local%", "defined"); err != nil {
		return err
	}
	for _, st := range stats {
		_, err := fmt.Fprintf(w, "%s %10s %12.6f %12.6f %12.6f %6.2f%%  %s:%d\n",
			name.Sprint(fit(st.Function, width)),
			p.Sprintf("%d", st.Calls),
			st.LocalTime, st.TotalTime, st.AvgLocal, st.LocalShare,
			st.Source, st.LineDefined)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes stats as an indented JSON array.
func WriteJSON(w io.Writer, stats []FunctionStat) error {
	if stats == nil {
		stats = []FunctionStat{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// WriteTree writes the call tree indented by depth.
func WriteTree(w io.Writer, t *Tree, opts TableOptions) error {
	name := styled(opts.Color, color.FgCyan)
	dim := styled(opts.Color, color.Faint)
	var err error
	t.Walk(func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		_, err = fmt.Fprintf(w, "%s%s %s\n",
			strings.Repeat("  ", depth),
			name.Sprint(n.Function),
			dim.Sprintf("[%s:%d] local=%.6f total=%.6f", n.Source, n.LineDefined, n.LocalTime, n.TotalTime))
		return opts.MaxDepth <= 0 || depth+1 < opts.MaxDepth
	})
	if err != nil {
		return err
	}
	if t.Orphans > 0 {
		_, err = fmt.Fprintf(w, "(%d unfinished subtrees)\n", t.Orphans)
	}
	return err
}
