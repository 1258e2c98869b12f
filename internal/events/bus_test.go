package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOut(t *testing.T) {
	bus := NewBus()
	a, unsubA := bus.Subscribe(1)
	defer unsubA()
	b, unsubB := bus.Subscribe(1)
	defer unsubB()

	ev := Completed{ExerciseID: "1", Accuracy: 75, SavedToFallback: true, UserID: "anonymous"}
	assert.Equal(t, 2, bus.Publish(ev))
	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-b)
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(1)
	defer unsub()

	assert.Equal(t, 1, bus.Publish(Completed{ExerciseID: "1"}))
	assert.Equal(t, 0, bus.Publish(Completed{ExerciseID: "2"}))
	got := <-ch
	assert.Equal(t, "1", got.ExerciseID)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(0)
	unsub()
	unsub()
	_, ok := <-ch
	require.False(t, ok)
	assert.Equal(t, 0, bus.Publish(Completed{}))
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	assert.Equal(t, 0, bus.Publish(Completed{}))
}
