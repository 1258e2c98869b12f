package primary

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/verbavox/internal/events"
)

type scriptedWaiter struct {
	notes  []*pgconn.Notification
	cancel context.CancelFunc
	err    error
}

func (w *scriptedWaiter) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	if len(w.notes) == 0 {
		if w.err != nil {
			return nil, w.err
		}
		w.cancel()
		return nil, ctx.Err()
	}
	n := w.notes[0]
	w.notes = w.notes[1:]
	return n, nil
}

func TestRelayForwardsValidNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &scriptedWaiter{cancel: cancel, notes: []*pgconn.Notification{
		{Channel: NotifyChannel, Payload: `{"exercise_id":"2","user_id":"ana","accuracy":88}`},
		{Channel: "other", Payload: `{"exercise_id":"9"}`},
		{Channel: NotifyChannel, Payload: `not json`},
		{Channel: NotifyChannel, Payload: `{"user_id":"bob"}`},
	}}

	var got []events.Completed
	require.NoError(t, Relay(ctx, w, func(ev events.Completed) { got = append(got, ev) }))
	assert.Equal(t, []events.Completed{
		{ExerciseID: "2", UserID: "ana", Accuracy: 88, SavedToDatabase: true},
	}, got)
}

func TestRelayReturnsConnectionErrors(t *testing.T) {
	boom := errors.New("connection reset")
	w := &scriptedWaiter{err: boom}
	err := Relay(context.Background(), w, func(events.Completed) {})
	assert.ErrorIs(t, err, boom)
}
