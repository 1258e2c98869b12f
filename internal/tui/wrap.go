package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/verbavox/internal/scoring"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildReviewRunes lays the reference transcript out word by word, styled by
// how each word was typed. Wrong words are followed by what was typed.
func buildReviewRunes(reviews []scoring.WordReview) []styledRune {
	out := make([]styledRune, 0, len(reviews)*6)
	for i, rv := range reviews {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		style := correctStyle
		switch rv.Status {
		case scoring.WordWrong:
			style = wrongStyle
			if rv.SoundsAlike {
				style = nearStyle
			}
		case scoring.WordMissing:
			style = missingStyle
		}
		out = appendWord(out, rv.Expected, style)
		if rv.Status == scoring.WordWrong && rv.Typed != "" {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
			out = appendWord(out, "("+rv.Typed+")", typedStyle)
		}
	}
	return out
}

// appendWord keeps a word's runes together so wrapping never splits it
// unless the word alone is wider than the line.
func appendWord(out []styledRune, word string, style lipgloss.Style) []styledRune {
	for _, r := range word {
		out = append(out, styledRune{
			s:     style.Render(string(r)),
			width: runewidth.RuneWidth(r),
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
