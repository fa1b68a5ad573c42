package export

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// piece is a run of text set in one style. Bold pieces keep their inner spaces.
type piece struct {
	text string
	bold bool
}

// word is a sequence of pieces drawn without any space between them.
type word []piece

// splitEmphasis turns "plain **bold** plain" into words. Text directly adjacent
// to a marker stays glued to it, so "V-**123**" is a single word.
func splitEmphasis(text string) []word {
	var words []word
	newWord := true

	add := func(p piece) {
		if newWord || len(words) == 0 {
			words = append(words, word{p})
		} else {
			words[len(words)-1] = append(words[len(words)-1], p)
		}
		newWord = false
	}

	for i, segment := range strings.Split(text, "**") {
		if segment == "" {
			continue
		}
		leading := startsWithSpace(segment)
		trailing := endsWithSpace(segment)
		fields := strings.Fields(segment)
		if leading {
			newWord = true
		}
		if len(fields) == 0 {
			newWord = true
			continue
		}

		if i%2 == 1 {
			add(piece{text: strings.Join(fields, " "), bold: true})
		} else {
			for j, f := range fields {
				if j > 0 {
					newWord = true
				}
				add(piece{text: f})
			}
		}
		if trailing {
			newWord = true
		}
	}
	return words
}

func startsWithSpace(s string) bool {
	return strings.TrimLeft(s, " \t\n") != s
}

func endsWithSpace(s string) bool {
	return strings.TrimRight(s, " \t\n") != s
}

// paragraph lays out words as justified lines on a gofpdf document. Text must
// already be translated to the document's code page.
type paragraph struct {
	pdf        *gofpdf.Fpdf
	family     string
	size       float64
	lineHeight float64
}

func (p paragraph) setFont(bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetFont(p.family, style, p.size)
}

func (p paragraph) pieceWidth(pc piece) float64 {
	p.setFont(pc.bold)
	return p.pdf.GetStringWidth(pc.text)
}

func (p paragraph) wordWidth(w word) float64 {
	total := 0.0
	for _, pc := range w {
		total += p.pieceWidth(pc)
	}
	return total
}

func innerSpaces(w word) int {
	n := 0
	for _, pc := range w {
		n += strings.Count(pc.text, " ")
	}
	return n
}

// explode breaks bold runs that cannot fit on a single line into words.
func (p paragraph) explode(words []word, width float64) []word {
	out := make([]word, 0, len(words))
	for _, w := range words {
		if innerSpaces(w) == 0 || p.wordWidth(w) <= width {
			out = append(out, w)
			continue
		}
		var current word
		for _, pc := range w {
			parts := strings.Split(pc.text, " ")
			for i, part := range parts {
				if i > 0 {
					out = append(out, current)
					current = nil
				}
				current = append(current, piece{text: part, bold: pc.bold})
			}
		}
		if len(current) > 0 {
			out = append(out, current)
		}
	}
	return out
}

// Draw renders words between x and x+width starting at baseline y and returns
// the baseline of the last line drawn.
func (p paragraph) Draw(words []word, x, y, width float64) float64 {
	if len(words) == 0 {
		return y
	}
	words = p.explode(words, width)

	p.setFont(false)
	space := p.pdf.GetStringWidth(" ")

	widths := make([]float64, len(words))
	for i, w := range words {
		widths[i] = p.wordWidth(w)
	}

	var lines [][]int
	var current []int
	lineWidth := 0.0
	for i := range words {
		if len(current) == 0 {
			current = []int{i}
			lineWidth = widths[i]
			continue
		}
		if lineWidth+space+widths[i] <= width {
			current = append(current, i)
			lineWidth += space + widths[i]
			continue
		}
		lines = append(lines, current)
		current = []int{i}
		lineWidth = widths[i]
	}
	lines = append(lines, current)

	baseline := y
	for li, line := range lines {
		natural := 0.0
		gaps := len(line) - 1
		for k, idx := range line {
			natural += widths[idx]
			gaps += innerSpaces(words[idx])
			if k > 0 {
				natural += space
			}
		}

		extra := 0.0
		if li < len(lines)-1 && gaps > 0 {
			extra = (width - natural) / float64(gaps)
		}
		p.pdf.SetWordSpacing(extra)

		cursor := x
		for k, idx := range line {
			if k > 0 {
				cursor += space + extra
			}
			for _, pc := range words[idx] {
				p.setFont(pc.bold)
				p.pdf.Text(cursor, baseline, pc.text)
				cursor += p.pdf.GetStringWidth(pc.text) + float64(strings.Count(pc.text, " "))*extra
			}
		}

		if li < len(lines)-1 {
			baseline += p.lineHeight
		}
	}
	p.pdf.SetWordSpacing(0)
	p.setFont(false)
	return baseline
}
