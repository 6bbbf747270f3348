package store

import (
	"context"
	"sync"
)

// Bus carries "owner changed" signals from writers to subscriptions.
type Bus interface {
	Publish(ctx context.Context, owner string) error
	// Subscribe returns a channel receiving one value per change (changes
	// may coalesce) and a cancel func releasing it.
	Subscribe(ctx context.Context, owner string) (<-chan struct{}, func(), error)
}

// Hub is the in-process Bus.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

func (h *Hub) Publish(_ context.Context, owner string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[owner] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, owner string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[owner] == nil {
		h.subs[owner] = make(map[chan struct{}]struct{})
	}
	h.subs[owner][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[owner], ch)
			if len(h.subs[owner]) == 0 {
				delete(h.subs, owner)
			}
		})
	}
	return ch, cancel, nil
}

// Subscribers reports how many subscriptions are open for owner.
func (h *Hub) Subscribers(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}
