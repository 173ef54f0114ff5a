package runner

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/gosom/virk-cvr/virk"
)

var ErrInvalidOutput = errors.New("invalid output format")

// WriteRecords writes records in the given format. searchValues are appended
// to every csv row after the record fields.
func WriteRecords(w io.Writer, format string, records []virk.Record, searchValues []string) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, records)
	case OutputCSV:
		return writeCSV(w, records, searchValues)
	case OutputTable, "":
		_, err := io.WriteString(w, table(records, 0))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutput, format)
	}
}

func writeJSON(w io.Writer, records []virk.Record) error {
	if records == nil {
		records = []virk.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(records)
}

func writeCSV(w io.Writer, records []virk.Record, searchValues []string) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	for i := range records {
		row := append(records[i].Fields(), searchValues...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func wrapText(text string, width int) []string {
	var lines []string

	var current strings.Builder

	currentWidth := 0

	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width {
			lines = append(lines, current.String())
			current.Reset()

			currentWidth = 0
		}

		current.WriteRune(r)
		currentWidth += rw
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

func terminalWidth(width int) int {
	if width <= 0 {
		var err error

		width, _, err = term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 80
		}
	}

	if width < 20 {
		width = 20
	}

	return width
}

// box draws the groups of lines inside a double-lined frame, with a
// separator between groups. Long lines are wrapped to the frame width.
func box(groups [][]string, width int) string {
	width = terminalWidth(width)
	contentWidth := width - 4

	var b strings.Builder

	b.WriteString("╔" + strings.Repeat("═", width-2) + "╗\n")

	for i, group := range groups {
		if i > 0 {
			b.WriteString("╟" + strings.Repeat("─", width-2) + "╢\n")
		}

		for _, message := range group {
			for _, line := range wrapText(message, contentWidth) {
				padding := max(contentWidth-runewidth.StringWidth(line), 0)
				fmt.Fprintf(&b, "║ %s%s ║\n", line, strings.Repeat(" ", padding))
			}
		}
	}

	b.WriteString("╚" + strings.Repeat("═", width-2) + "╝\n")

	return b.String()
}

func table(records []virk.Record, width int) string {
	if len(records) == 0 {
		return box([][]string{{"no records"}}, width)
	}

	labels := []string{"CVR", "Navn", "Vejnavn", "Husnr", "Postnr", "Branchekode"}

	groups := make([][]string, 0, len(records))

	for i := range records {
		fields := records[i].Fields()
		group := make([]string, len(labels))

		for j, label := range labels {
			group[j] = runewidth.FillRight(label, 12) + fields[j]
		}

		groups = append(groups, group)
	}

	return box(groups, width)
}

// Banner prints the program name to stderr.
func Banner() {
	fmt.Fprint(os.Stderr, box([][]string{{
		"🏢 virk-cvr",
		"Lookups against the Danish Central Business Register (CVR)",
	}}, 0))
}
