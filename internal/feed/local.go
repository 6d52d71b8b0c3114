package feed

import (
	"context"
	"sync"
)

// Local is an in-process feed. A full subscriber buffer drops the event:
// the subscriber already has a pending notification to act on.
type Local struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan Event
	nextID int
	closed bool
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[int]chan Event)}
}

func (l *Local) Publish(ctx context.Context, ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs[ev.PostID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, postID string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		close(ch)
		return ch, func() {}, nil
	}
	id := l.nextID
	l.nextID++
	if l.subs[postID] == nil {
		l.subs[postID] = make(map[int]chan Event)
	}
	l.subs[postID][id] = ch
	l.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			l.mu.Lock()
			defer l.mu.Unlock()
			if set, ok := l.subs[postID]; ok {
				if _, ok := set[id]; ok {
					delete(set, id)
					close(ch)
				}
				if len(set) == 0 {
					delete(l.subs, postID)
				}
			}
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}

// Subscribers reports the number of live subscriptions for postID.
func (l *Local) Subscribers(postID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[postID])
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for postID, set := range l.subs {
		for id, ch := range set {
			close(ch)
			delete(set, id)
		}
		delete(l.subs, postID)
	}
	return nil
}
