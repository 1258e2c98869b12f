// Package scoring grades transcriptions and converts history into points.
package scoring

import (
	"math"
	"strings"
)

// Result is the outcome of comparing a transcription with its reference.
type Result struct {
	Accuracy     int
	Mistakes     int
	TotalWords   int
	CorrectWords int
}

// Words lowercases text and splits it on runs of whitespace.
func Words(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Compare scores submitted against reference word by word, by position only.
// Extra submitted words are ignored and missing ones count as mistakes.
func Compare(reference, submitted string) Result {
	ref := Words(reference)
	got := Words(submitted)
	total := len(ref)
	if total == 0 {
		return Result{}
	}
	correct := 0
	n := min(len(ref), len(got))
	for i := 0; i < n; i++ {
		if ref[i] == got[i] {
			correct++
		}
	}
	return Result{
		Accuracy:     Percent(correct, total),
		Mistakes:     total - correct,
		TotalWords:   total,
		CorrectWords: correct,
	}
}

// Percent returns round(100*part/whole), or 0 when whole is not positive.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
