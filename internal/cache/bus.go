package cache

import "sync"

// Bus makes the mutation→refetch coupling explicit: a successful mutation
// publishes the query keys it dirtied, subscribers (the cache, typically)
// drop those entries so the next render refetches.
type Bus struct {
	mu   sync.RWMutex
	subs []func(keys ...string)
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(fn func(keys ...string)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

func (b *Bus) Publish(keys ...string) {
	if len(keys) == 0 {
		return
	}

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(keys...)
	}
}
