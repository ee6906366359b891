package channel

import "sync"

// Bus delivers messages between contexts. Delivery is at-most-once with
// no acknowledgement.
type Bus interface {
	Publish(m Message) error
	// Subscribe registers fn for every message published after the call.
	// The returned function unregisters it.
	Subscribe(fn func(Message)) (cancel func())
}

// LocalBus fans messages out to in-process subscribers, synchronously
// and in subscription order.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[int]func(Message)
	order  []int
	nextID int
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]func(Message))}
}

func (b *LocalBus) Publish(m Message) error {
	b.mu.RLock()
	fns := make([]func(Message), 0, len(b.order))
	for _, id := range b.order {
		if fn, ok := b.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(m)
	}
	return nil
}

func (b *LocalBus) Subscribe(fn func(Message)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		for i, o := range b.order {
			if o == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}
