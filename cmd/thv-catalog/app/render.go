package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
)

// maxDescriptionWidth truncates descriptions in table output
const maxDescriptionWidth = 60

var (
	newBadgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#50FA7B"))

	statusStyles = map[catalog.Status]lipgloss.Style{
		catalog.StatusWorking: lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
		catalog.StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C")),
		catalog.StatusBroken:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")),
	}

	installedStyle = lipgloss.NewStyle().Faint(true)
)

// renderer writes views to a command's output
type renderer struct {
	out   io.Writer
	color bool
}

// newRenderer colors badges only when out is a terminal
func newRenderer(out io.Writer) *renderer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &renderer{out: out, color: color}
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if !r.color || text == "" {
		return text
	}
	return s.Render(text)
}

// items renders a view as a table or as JSON
func (r *renderer) items(kind catalog.Kind, items []session.Item, output string) error {
	if output == outputJSON {
		return r.json(items)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(r.out, "No entries found")
		return err
	}

	table := tablewriter.NewWriter(r.out)
	if kind == catalog.KindTheme {
		table.Header("", "Name", "Tags", "Authors", "Description", "Action")
	} else {
		table.Header("", "Name", "Status", "Authors", "Description", "Action")
	}

	for _, item := range items {
		if err := table.Append(r.row(item)); err != nil {
			return fmt.Errorf("failed to render entry: %w", err)
		}
	}
	return table.Render()
}

func (r *renderer) row(item session.Item) []string {
	info := item.Entry.Info()

	badge := ""
	if item.New {
		badge = r.style(newBadgeStyle, "NEW")
	}

	var detail string
	switch entry := item.Entry.(type) {
	case *catalog.Extension:
		detail = r.style(statusStyles[entry.Status], string(entry.Status))
	case *catalog.Theme:
		detail = strings.Join(entry.Tags, ", ")
	}

	action := string(item.Action.Label)
	if item.Installed {
		action = r.style(installedStyle, action)
	}
	if item.Action.Confirm {
		action += " (confirm)"
	}

	return []string{
		badge,
		info.Name,
		detail,
		strings.Join(info.Authors, ", "),
		truncate(info.Description, maxDescriptionWidth),
		action,
	}
}

// status renders status reports as a table or as JSON
func (r *renderer) status(reports []*session.StatusReport, output string) error {
	if output == outputJSON {
		return r.json(reports)
	}

	table := tablewriter.NewWriter(r.out)
	table.Header("Catalog", "Phase", "Entries", "New", "Tracking", "Last Refresh", "Message")
	for _, report := range reports {
		phase, lastSync, message := "-", "-", ""
		if rs := report.Refresh; rs != nil {
			phase = string(rs.Phase)
			message = rs.Message
			if rs.LastSyncTime != nil {
				lastSync = rs.LastSyncTime.Local().Format("2006-01-02 15:04:05")
			}
		}
		row := []string{
			string(report.Kind),
			phase,
			strconv.Itoa(report.EntryCount),
			strconv.Itoa(report.NewCount),
			strconv.FormatBool(report.Tracking),
			lastSync,
			message,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render status: %w", err)
		}
	}
	return table.Render()
}

func (r *renderer) json(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// validateOutput rejects unknown --output values
func validateOutput(output string) error {
	switch output {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, expected %q or %q", output, outputTable, outputJSON)
	}
}
