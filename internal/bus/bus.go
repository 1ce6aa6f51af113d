package bus

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

/*
Bus decouples "an analysis finished" from "who needs to know". The session
that started a batch may be long gone by the time the batch settles, and
unrelated sessions (a metrics dashboard, the CLI) need to refresh without
being wired to the submission flow.

Delivery is synchronous, in registration order, and best-effort: a handler
registered after Publish returns does not receive that signal. There is no
replay or queuing.
*/
type Bus struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

type subscription struct {
	id      int
	handler func()
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers a handler and returns its disposer. The disposer must
// be invoked when the subscribing session goes away; a disposed handler
// never fires again.
func (b *Bus) Subscribe(handler func()) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs = append(b.subs, subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.subs {
			if b.subs[i].id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish broadcasts the zero-payload completion signal to every current
// subscriber. Publishing with no subscribers is a no-op.
func (b *Bus) Publish() {
	b.mu.Lock()
	handlers := make([]func(), len(b.subs))
	for i, sub := range b.subs {
		handlers[i] = sub.handler
	}
	b.mu.Unlock()

	if len(handlers) == 0 {
		return
	}
	log.WithField("subscribers", len(handlers)).Debug("publishing completion signal")
	for _, h := range handlers {
		h()
	}
}
