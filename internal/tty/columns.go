package tty

import (
	"strings"
	"unicode/utf8"
)

const (
	columnIndent  = 4
	columnPadding = 2
)

// Columns lays items out column-major in as many columns as fit in width.
// Item order is preserved: the first column holds the first rows items, and
// so on. Lines carry no trailing padding.
func Columns(items []string, width int) []string {
	if len(items) == 0 {
		return nil
	}

	cols := fitColumns(items, width)
	rows := (len(items) + cols - 1) / cols
	widths := columnWidths(items, rows, cols)

	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		b.WriteString(strings.Repeat(" ", columnIndent))
		for c := 0; c < cols; c++ {
			i := c*rows + r
			if i >= len(items) {
				break
			}
			b.WriteString(items[i])
			if next := (c+1)*rows + r; c < cols-1 && next < len(items) {
				b.WriteString(strings.Repeat(" ", widths[c]-utf8.RuneCountInString(items[i])+columnPadding))
			}
		}
		lines = append(lines, b.String())
	}
	return lines
}

// fitColumns returns the largest column count whose layout fits in width.
// A single column is always accepted.
func fitColumns(items []string, width int) int {
	for cols := len(items); cols > 1; cols-- {
		rows := (len(items) + cols - 1) / cols
		// Skip counts that leave a trailing column empty.
		if (cols-1)*rows >= len(items) {
			continue
		}
		total := columnIndent
		for _, w := range columnWidths(items, rows, cols) {
			total += w + columnPadding
		}
		if total-columnPadding <= width {
			return cols
		}
	}
	return 1
}

func columnWidths(items []string, rows, cols int) []int {
	widths := make([]int, cols)
	for i, item := range items {
		c := i / rows
		if c >= cols {
			break
		}
		if n := utf8.RuneCountInString(item); n > widths[c] {
			widths[c] = n
		}
	}
	return widths
}
