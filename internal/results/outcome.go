package results

import (
	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/primary"
)

// Kind names the three reportable save outcomes.
type Kind string

const (
	KindSavedToPrimary  Kind = "saved-to-primary"
	KindSavedToFallback Kind = "saved-to-fallback"
	KindSaveFailed      Kind = "save-failed"
)

// Outcome reports where an attempt ended up.
type Outcome struct {
	// Record is the normalised attempt as stored, with its id and completion time set.
	Record model.AttemptResult

	SavedToPrimary  bool
	SavedToFallback bool
	// PrimaryClass is ClassNone when the primary write succeeded or was skipped.
	PrimaryClass primary.ErrorClass
	// PrimaryErr holds the raw primary error, if any, for logging by callers.
	PrimaryErr error
	// FallbackErr holds the fallback error when the device write failed.
	FallbackErr error
}

// Kind collapses the outcome into one of the three reportable kinds.
// A primary success wins even when the device mirror failed.
func (o Outcome) Kind() Kind {
	switch {
	case o.SavedToPrimary:
		return KindSavedToPrimary
	case o.SavedToFallback:
		return KindSavedToFallback
	default:
		return KindSaveFailed
	}
}

// Saved reports whether any store accepted the attempt.
func (o Outcome) Saved() bool {
	return o.SavedToPrimary || o.SavedToFallback
}

// Source names where a history was loaded from.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "device"
	SourceNone     Source = "none"
)
