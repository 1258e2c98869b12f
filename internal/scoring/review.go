package scoring

import "github.com/antzucaro/matchr"

// WordStatus describes how one reference position was transcribed.
type WordStatus int

const (
	WordCorrect WordStatus = iota
	WordWrong
	WordMissing
)

// soundsAlikeThreshold is the Jaro-Winkler similarity above which a wrong word
// is flagged as a near miss.
const soundsAlikeThreshold = 0.85

// WordReview pairs a reference word with what the user typed in its place.
type WordReview struct {
	Expected    string
	Typed       string
	Status      WordStatus
	SoundsAlike bool
}

// Review lays the submission over the reference for display. It uses the same
// positional alignment as Compare; the near-miss hint never changes a score.
func Review(reference, submitted string) []WordReview {
	ref := Words(reference)
	got := Words(submitted)
	out := make([]WordReview, 0, len(ref))
	for i, want := range ref {
		if i >= len(got) {
			out = append(out, WordReview{Expected: want, Status: WordMissing})
			continue
		}
		typed := got[i]
		if typed == want {
			out = append(out, WordReview{Expected: want, Typed: typed, Status: WordCorrect})
			continue
		}
		out = append(out, WordReview{
			Expected:    want,
			Typed:       typed,
			Status:      WordWrong,
			SoundsAlike: soundsAlike(want, typed),
		})
	}
	return out
}

// NearMisses counts wrong words that sound like the expected word.
func NearMisses(reviews []WordReview) int {
	n := 0
	for _, r := range reviews {
		if r.Status == WordWrong && r.SoundsAlike {
			n++
		}
	}
	return n
}

func soundsAlike(a, b string) bool {
	a = stripPunct(a)
	b = stripPunct(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	if ap != "" && (ap == bp || ap == bs) {
		return true
	}
	if as != "" && (as == bp || as == bs) {
		return true
	}
	return matchr.JaroWinkler(a, b, false) >= soundsAlikeThreshold
}

func stripPunct(word string) string {
	out := make([]rune, 0, len(word))
	for _, r := range word {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127 {
			out = append(out, r)
		}
	}
	return string(out)
}
