// Package events broadcasts in-process notifications between screens.
package events

import "sync"

// Completed is raised after a submission has been persisted somewhere.
type Completed struct {
	ExerciseID      string
	Accuracy        int
	SavedToDatabase bool
	SavedToFallback bool
	UserID          string
}

// Bus fans Completed events out to subscribers. Delivery is best-effort: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Completed
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: map[int]chan Completed{}}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Completed, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Completed, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber without blocking and returns how
// many received it.
func (b *Bus) Publish(ev Completed) int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}
