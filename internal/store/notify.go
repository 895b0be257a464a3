package store

import "sync"

// Broadcaster fans change events out to in-process subscribers.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

type subscriber struct {
	userID string
	fn     func(ChangeEvent)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]subscriber)}
}

// Subscribe registers fn for events of userID. An empty userID receives every event.
func (b *Broadcaster) Subscribe(userID string, fn func(ChangeEvent)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscriber{userID: userID, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Broadcaster) Publish(ev ChangeEvent) {
	b.mu.RLock()
	targets := make([]func(ChangeEvent), 0, len(b.subs))
	for _, s := range b.subs {
		if s.userID == "" || s.userID == ev.UserID {
			targets = append(targets, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		fn(ev)
	}
}
