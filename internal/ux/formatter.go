package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Formats accepted by NewFormatter.
var Formats = []string{"text", "json", "yaml"}

// Formatter defines the interface for output formatters.
// This enables consistent output formatting across all commands.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data interface{}) error
}

// Tabler is implemented by results with a tabular text rendering.
type Tabler interface {
	Table() *Table
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables colored output for text formatters
	NoColor bool
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
}

// ValidFormat reports whether format is accepted by NewFormatter.
func ValidFormat(format string) bool {
	if format == "" {
		return true
	}
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml":
		return &YAMLFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data interface{}) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data interface{}) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	opts *FormatterOptions
}

// Format writes data as text. Tablers render as a table; strings and
// Stringers are printed as they are.
func (f *TextFormatter) Format(data interface{}) error {
	switch v := data.(type) {
	case Tabler:
		t := v.Table()
		t.NoColor = t.NoColor || f.opts.NoColor
		_, err := fmt.Fprintln(f.opts.Writer, t.String())
		return err
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	default:
		return fmt.Errorf("text output is not available for %T, use --format json or yaml", data)
	}
}

// Table is a text table rendered with lipgloss.
type Table struct {
	Headers []string
	Rows    [][]string
	// Empty is printed instead of a table with no rows.
	Empty   string
	NoColor bool
}

// NewTable starts a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, Empty: "No results."}
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return t.Empty
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	border := lipgloss.NewStyle()
	if !t.NoColor {
		header = header.Foreground(lipgloss.Color("63"))
		border = border.Foreground(lipgloss.Color("241"))
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

// Field is one line of a Fields block.
type Field struct {
	Key   string
	Value string
}

// Fields renders aligned "key: value" lines.
type Fields []Field

func (fs Fields) String() string {
	width := 0
	for _, f := range fs {
		if len(f.Key) > width {
			width = len(f.Key)
		}
	}
	var b strings.Builder
	for i, f := range fs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-*s  %s", width+1, f.Key+":", f.Value)
	}
	return b.String()
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
