// Package table renders the long listing of tool variants as a fixed-column
// text table, wrapping the wide descriptive columns to the available
// terminal width.
package table

import "strings"

var headers = [5]string{"Tool Variant Name", "Version", "Release Date", "Display Name", "Description"}

const (
	gap = 3 // spaces between columns

	// minFlexWidth is the narrowest acceptable width for each of the two
	// wrapping columns; below that only the first three columns render.
	minFlexWidth = 10
)

// Row is one tool variant in the listing.
type Row struct {
	Name        string
	Version     string
	ReleaseDate string
	DisplayName string
	Description string
}

func (r Row) cells() [5]string {
	return [5]string{r.Name, r.Version, r.ReleaseDate, r.DisplayName, r.Description}
}

// Table is the long-listing answer. Width is the rendering width in columns;
// zero or negative means unconstrained.
type Table struct {
	Rows  []Row
	Width int
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return len(t.Rows) == 0 }

func (t *Table) String() string { return t.Render(t.Width) }

// Render renders the table at the given width. When the natural column
// widths exceed the available width, the Display Name and Description
// columns word-wrap across continuation lines; when even that cannot fit,
// only the first three columns are rendered.
func (t *Table) Render(width int) string {
	natural := t.naturalWidths()
	colw := natural
	ncols := 5
	wrap := false

	if width > 0 {
		total := gap * 4
		for _, w := range natural {
			total += w
		}
		if total > width {
			fixed := natural[0] + natural[1] + natural[2]
			avail := width - fixed - gap*4
			if avail < 2*minFlexWidth {
				ncols = 3
			} else {
				colw[3] = avail / 2
				colw[4] = avail - avail/2
				wrap = true
			}
		}
	}

	lineWidth := gap * (ncols - 1)
	for i := 0; i < ncols; i++ {
		lineWidth += colw[i]
	}

	var b strings.Builder
	headerCells := make([]string, ncols)
	for i := 0; i < ncols; i++ {
		headerCells[i] = center(headers[i], colw[i])
	}
	b.WriteString(strings.Join(headerCells, strings.Repeat(" ", gap)) + "\n")
	b.WriteString(strings.Repeat("=", lineWidth) + "\n")

	for _, row := range t.Rows {
		cells := row.cells()
		wrapped := [5][]string{}
		height := 1
		for i := 0; i < ncols; i++ {
			if wrap && i >= 3 {
				wrapped[i] = wordWrap(cells[i], colw[i])
			} else {
				wrapped[i] = []string{cells[i]}
			}
			if len(wrapped[i]) > height {
				height = len(wrapped[i])
			}
		}
		for line := 0; line < height; line++ {
			parts := make([]string, ncols)
			for i := 0; i < ncols; i++ {
				cell := ""
				if line < len(wrapped[i]) {
					cell = wrapped[i][line]
				}
				parts[i] = pad(cell, colw[i])
			}
			b.WriteString(strings.Join(parts, strings.Repeat(" ", gap)) + "\n")
		}
	}
	return b.String()
}

func (t *Table) naturalWidths() [5]int {
	var widths [5]int
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row.cells() {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	left := (w - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", w-len(s)-left)
}

// wordWrap greedily wraps text to the given width. Words longer than the
// width are hard-split.
func wordWrap(s string, w int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	current := ""
	for _, word := range words {
		for len(word) > w {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, word[:w])
			word = word[w:]
		}
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= w:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
