package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// printer renders command output. Styles are bound to the destination
// writer, so colors are dropped when it is not a terminal.
type printer struct {
	w      io.Writer
	format string

	header  lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
	muted   lipgloss.Style
	heading lipgloss.Style
}

func newPrinter(w io.Writer, format string) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		format:  format,
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:   r.NewStyle().Faint(true),
		heading: r.NewStyle().Bold(true).Underline(true),
	}
}

// table prints rows as a bordered table, or v as JSON with --output json.
func (p *printer) table(v any, headers []string, rows [][]string) error {
	if p.format == outputJSON {
		return p.json(v)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.w, p.muted.Render("(none)"))
		return err
	}
	cell := p.header.UnsetBold()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return cell
		})
	_, err := fmt.Fprintln(p.w, t.Render())
	return err
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) section(title string) {
	fmt.Fprintf(p.w, "\n%s\n", p.heading.Render(title))
}

func (p *printer) success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.ok.Render("✓"), fmt.Sprintf(format, args...))
}

func (p *printer) failure(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.fail.Render("✗"), fmt.Sprintf(format, args...))
}

func (p *printer) info(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s\n", fmt.Sprintf(format, args...))
}
