package service

import "sync"

// notifier fans events out to subscribers in subscription order.
type notifier[E any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[E]
}

type subscriber[E any] struct {
	id int
	fn func(E)
}

// subscribe registers fn and returns a function that removes it.
func (n *notifier[E]) subscribe(fn func(E)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.subs = append(n.subs, subscriber[E]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// publish calls every subscriber with ev. It must not be called with a
// store lock held.
func (n *notifier[E]) publish(ev E) {
	n.mu.Lock()
	subs := make([]subscriber[E], len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
