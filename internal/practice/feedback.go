package practice

import (
	"fmt"

	"github.com/verte-zerg/verbavox/internal/results"
)

// Severity drives how feedback is styled.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

// Feedback is the user-facing notice shown after a submit.
type Feedback struct {
	Title    string
	Message  string
	Severity Severity
}

// FeedbackFor maps a save outcome to one of three distinct notices.
func FeedbackFor(out results.Outcome, accuracy int) Feedback {
	title := fmt.Sprintf("Accuracy %d%%", accuracy)
	switch out.Kind() {
	case results.KindSavedToPrimary:
		return Feedback{Title: title, Message: "Results saved."}
	case results.KindSavedToFallback:
		return Feedback{Title: title, Message: "Results saved on this device.", Severity: SeverityWarn}
	default:
		return Feedback{Title: title, Message: "Results could not be saved.", Severity: SeverityError}
	}
}
