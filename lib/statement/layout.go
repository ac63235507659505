package statement

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "Helvetica"
	fontSize   = 9
	lineHeight = 4.5

	padding        = 1.5
	sectionPadding = 3
)

var shade = [3]int{228, 234, 243}

type cell struct {
	width  float64
	text   string
	align  string
	fill   bool
	bold   bool
	hidden bool
}

// layout draws bordered cells top to bottom, breaking pages itself so a row
// is never split across two pages.
type layout struct {
	pdf *fpdf.Fpdf
	tr  func(string) string

	left   float64
	bottom float64
	pageH  float64
	width  float64
}

func newLayout(pdf *fpdf.Fpdf) *layout {
	left, _, right, bottom := pdf.GetMargins()
	pageW, pageH := pdf.GetPageSize()
	return &layout{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		left:   left,
		bottom: bottom,
		pageH:  pageH,
		width:  pageW - left - right,
	}
}

func (l *layout) ensure(h float64) {
	if l.pdf.GetY()+h > l.pageH-l.bottom {
		l.pdf.AddPage()
	}
}

func (l *layout) setFont(bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	l.pdf.SetFont(fontFamily, style, size)
}

// wrap translates `text` to the font encoding and breaks it into lines that
// fit in `w`.
func (l *layout) wrap(text string, w float64) []string {
	translated := l.tr(text)
	if translated == "" {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range strings.Split(translated, " ") {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if l.pdf.GetStringWidth(candidate) <= w {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		// a single word wider than the cell is cut wherever it overflows
		for l.pdf.GetStringWidth(word) > w && len(word) > 1 {
			cut := len(word) - 1
			for cut > 1 && l.pdf.GetStringWidth(word[:cut]) > w {
				cut--
			}
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		current = word
	}
	return append(lines, current)
}

func (l *layout) height(c cell, pad float64) float64 {
	l.setFont(c.bold, fontSize)
	return float64(len(l.wrap(c.text, c.width-2*padding)))*lineHeight + 2*pad
}

func (l *layout) draw(x, y, h float64, c cell, pad float64) {
	if c.hidden {
		return
	}
	style := "D"
	if c.fill {
		l.pdf.SetFillColor(shade[0], shade[1], shade[2])
		style = "DF"
	}
	l.pdf.Rect(x, y, c.width, h, style)

	l.setFont(c.bold, fontSize)
	lines := l.wrap(c.text, c.width-2*padding)
	textH := float64(len(lines)) * lineHeight
	ty := y + (h-textH)/2
	for i, line := range lines {
		l.pdf.SetXY(x+padding, ty+float64(i)*lineHeight)
		l.pdf.CellFormat(c.width-2*padding, lineHeight, line, "", 0, c.align, false, 0, "")
	}
}

// row draws cells side by side at the current position with the height of
// the tallest one.
func (l *layout) row(cells []cell, pad float64) {
	h := 0.0
	for _, c := range cells {
		h = max(h, l.height(c, pad))
	}
	l.ensure(h)

	x, y := l.left, l.pdf.GetY()
	for _, c := range cells {
		l.draw(x, y, h, c, pad)
		x += c.width
	}
	l.pdf.SetXY(l.left, y+h)
}

// breakdown draws a shaded label column holding `key` above a sub-table
// made of the first `split` cells of every line, next to one column per
// remaining cell. A line has the same height in every column and hidden cells
// keep their place.
func (l *layout) breakdown(key cell, lines [][]cell, split int) {
	headerH := l.height(key, padding)
	heights := make([]float64, len(lines))
	total := headerH
	for i, line := range lines {
		for _, c := range line {
			heights[i] = max(heights[i], l.height(c, padding))
		}
		total += heights[i]
	}
	l.ensure(total)

	y := l.pdf.GetY()
	l.pdf.SetFillColor(shade[0], shade[1], shade[2])
	l.pdf.Rect(l.left, y, key.width, total, "DF")
	l.draw(l.left, y, headerH, key, padding)

	x := l.left + key.width
	if len(lines) > 0 {
		for _, c := range lines[0][split:] {
			l.draw(x, y, headerH, cell{width: c.width}, padding)
			x += c.width
		}
	}

	lineY := y + headerH
	for i, line := range lines {
		x := l.left
		for j, c := range line {
			c.fill = j < split
			l.draw(x, lineY, heights[i], c, padding)
			x += c.width
		}
		lineY += heights[i]
	}
	l.pdf.SetXY(l.left, y+total)
}

// stacked draws a column of cells on the left (sharing its width) next to
// full height cells on the right.
func (l *layout) stacked(left []cell, right []cell) {
	leftTotal := 0.0
	heights := make([]float64, len(left))
	for i, c := range left {
		heights[i] = l.height(c, padding)
		leftTotal += heights[i]
	}
	total := leftTotal
	for _, c := range right {
		total = max(total, l.height(c, padding))
	}
	l.ensure(total)

	y := l.pdf.GetY()
	cy := y
	for i, c := range left {
		h := heights[i]
		if i == len(left)-1 {
			h = y + total - cy
		}
		l.draw(l.left, cy, h, c, padding)
		cy += h
	}

	x := l.left
	if len(left) > 0 {
		x += left[0].width
	}
	for _, c := range right {
		l.draw(x, y, total, c, padding)
		x += c.width
	}
	l.pdf.SetXY(l.left, y+total)
}

func (l *layout) gap(h float64) {
	l.pdf.SetXY(l.left, l.pdf.GetY()+h)
}
