package comments

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Hub hands out one Synchronizer per post and keeps the most recently used
// ones warm. Evicted synchronizers are closed.
type Hub struct {
	mu       sync.Mutex
	cache    *lru.Cache[string, *Synchronizer]
	store    RowStore
	profiles ProfileLookup
	opts     []Option
}

func NewHub(size int, store RowStore, profiles ProfileLookup, opts ...Option) (*Hub, error) {
	cache, err := lru.NewWithEvict[string, *Synchronizer](size, func(_ string, s *Synchronizer) {
		s.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Hub{cache: cache, store: store, profiles: profiles, opts: opts}, nil
}

// Get returns the synchronizer bound to postID, creating and loading it on
// first use.
func (h *Hub) Get(ctx context.Context, postID string) (*Synchronizer, error) {
	if postID == "" {
		return nil, invalid("post_id", "is required")
	}

	h.mu.Lock()
	s, ok := h.cache.Get(postID)
	if !ok {
		s = New(h.store, h.profiles, h.opts...)
		if err := s.setPost(postID); err != nil {
			h.mu.Unlock()
			return nil, err
		}
		h.cache.Add(postID, s)
	}
	h.mu.Unlock()

	if err := s.Ensure(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func (h *Hub) Remove(postID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cache.Remove(postID)
}

func (h *Hub) Len() int {
	return h.cache.Len()
}

// Close closes every cached synchronizer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cache.Purge()
}
