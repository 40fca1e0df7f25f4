// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/placectl/internal/config"
	"github.com/staranto/placectl/internal/parser"
)

// Formats are the values accepted by --output.
var Formats = []string{"text", "json", "yaml", "raw"}

// Options control how a result is emitted.
type Options struct {
	Format  string
	Filter  string
	Sort    string
	Color   bool
	Titles  bool
	Padding int
	Colors  config.Colors
}

// Raw writes body untouched.
func Raw(w io.Writer, body []byte) error {
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write raw response: %w", err)
	}
	return nil
}

// Emit filters and sorts result and writes it to w in opts.Format.
func Emit(w io.Writer, result *parser.PlaceResult, opts Options) error {
	if w == nil {
		w = os.Stdout
	}

	filters, err := BuildFilters(opts.Filter)
	if err != nil {
		return err
	}

	rows := FilterRows(RowsOf(result), filters)
	if err := SortRows(rows, opts.Sort); err != nil {
		return err
	}
	log.Debugf("emitting %d of %d places as %s", len(rows), result.Len(), opts.Format)

	switch opts.Format {
	case "json":
		out := parser.NewPlaceResult()
		for _, r := range rows {
			out.Set(r.Name, r.Address)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		doc := make(yaml.MapSlice, 0, len(rows))
		for _, r := range rows {
			doc = append(doc, yaml.MapItem{Key: r.Name, Value: r.Address})
		}
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "", "text":
		TableWriter(rows, opts, w)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
}

// TableWriter renders rows as a borderless name and address table. Nothing is
// written for an empty set.
func TableWriter(rows []Row, opts Options, w io.Writer) {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Name, r.Address})
	}
	Table(w, []string{"NAME", "ADDRESS"}, cells, opts)
}

// Table renders cells as a borderless table with alternating row colors.
// headers are shown only when opts.Titles is set.
func Table(w io.Writer, headers []string, cells [][]string, opts Options) {
	if len(cells) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerStyle = headerStyle.Foreground(lipgloss.Color(opts.Colors.Title))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(opts.Colors.Even))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(opts.Colors.Odd))
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(opts.Padding)
			}

			return style
		}).
		Headers().
		Rows(cells...)

	if opts.Titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}

	fmt.Fprintln(w, t)
}

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
