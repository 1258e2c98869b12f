// Package practice turns a typed transcription into a scored, persisted attempt.
package practice

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/verbavox/internal/events"
	"github.com/verte-zerg/verbavox/internal/model"
	"github.com/verte-zerg/verbavox/internal/observe"
	"github.com/verte-zerg/verbavox/internal/results"
	"github.com/verte-zerg/verbavox/internal/scoring"
)

// ErrEmptySubmission rejects a blank transcription before scoring.
var ErrEmptySubmission = errors.New("please type what you heard before submitting")

// Saver persists attempts.
type Saver interface {
	Save(ctx context.Context, r model.AttemptResult) results.Outcome
}

// Submission is the outcome of one submit action.
type Submission struct {
	Result   scoring.Result
	Review   []scoring.WordReview
	Attempt  model.AttemptResult
	Outcome  results.Outcome
	Feedback Feedback
}

// Service scores and saves attempts for one user.
type Service struct {
	userID  string
	saver   Saver
	bus     *events.Bus
	metrics *observe.Metrics
	log     *zap.Logger
}

// NewService builds a Service. bus and metrics may be nil.
func NewService(userID string, saver Saver, bus *events.Bus, metrics *observe.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = model.AnonymousUser
	}
	return &Service{userID: userID, saver: saver, bus: bus, metrics: metrics, log: log}
}

// UserID returns the user attempts are recorded for.
func (s *Service) UserID() string {
	return s.userID
}

// Submit scores text against the exercise and persists the attempt. The only
// error is ErrEmptySubmission; persistence problems are reported through the
// submission's outcome and feedback.
func (s *Service) Submit(ctx context.Context, ex model.Exercise, text string) (Submission, error) {
	if strings.TrimSpace(text) == "" {
		return Submission{}, ErrEmptySubmission
	}

	res := scoring.Compare(ex.Text, text)
	s.metrics.RecordAccuracy(ctx, res.Accuracy, string(ex.Difficulty))

	attempt := model.AttemptResult{
		UserID:     s.userID,
		ExerciseID: ex.ID,
		UserText:   text,
		Accuracy:   res.Accuracy,
		Mistakes:   res.Mistakes,
		TotalWords: res.TotalWords,
	}
	out := s.saver.Save(ctx, attempt)
	if out.Saved() {
		attempt = out.Record
	}

	s.log.Info("attempt submitted",
		zap.String("exercise_id", ex.ID),
		zap.Int("accuracy", res.Accuracy),
		zap.String("outcome", string(out.Kind())),
	)

	if out.Saved() {
		s.bus.Publish(events.Completed{
			ExerciseID:      ex.ID,
			Accuracy:        res.Accuracy,
			SavedToDatabase: out.SavedToPrimary,
			SavedToFallback: out.SavedToFallback,
			UserID:          attempt.UserID,
		})
	}

	return Submission{
		Result:   res,
		Review:   scoring.Review(ex.Text, text),
		Attempt:  attempt,
		Outcome:  out,
		Feedback: FeedbackFor(out, res.Accuracy),
	}, nil
}
