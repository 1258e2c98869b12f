package primary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verte-zerg/verbavox/internal/events"
)

// NotifyChannel is the channel the insert trigger in [Schema] notifies on.
const NotifyChannel = "exercise_completed"

type notification struct {
	ExerciseID string `json:"exercise_id"`
	UserID     string `json:"user_id"`
	Accuracy   int    `json:"accuracy"`
}

// Waiter blocks until the next notification arrives. *pgx.Conn implements it.
type Waiter interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
}

// Listen holds one pooled connection listening on [NotifyChannel] and
// forwards every insert to publish until ctx is done.
func Listen(ctx context.Context, pool *pgxpool.Pool, publish func(events.Completed)) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("primary: acquire listener: %w", err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return fmt.Errorf("primary: listen: %w", err)
	}
	return Relay(ctx, conn.Conn(), publish)
}

// Relay decodes notifications from w and forwards them. Malformed payloads
// are skipped. It returns nil when ctx is cancelled.
func Relay(ctx context.Context, w Waiter, publish func(events.Completed)) error {
	for {
		n, err := w.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("primary: wait for notification: %w", err)
		}
		if n.Channel != NotifyChannel {
			continue
		}
		ev, err := decodeNotification(n.Payload)
		if err != nil {
			continue
		}
		publish(ev)
	}
}

func decodeNotification(payload string) (events.Completed, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return events.Completed{}, err
	}
	if n.ExerciseID == "" {
		return events.Completed{}, errors.New("notification without exercise id")
	}
	return events.Completed{
		ExerciseID:      n.ExerciseID,
		Accuracy:        n.Accuracy,
		SavedToDatabase: true,
		UserID:          n.UserID,
	}, nil
}
