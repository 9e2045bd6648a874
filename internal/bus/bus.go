// Package bus is the cross-context event fabric of a terminal installation.
// It carries a small closed set of change signals between subscribers in the
// same process and, through an optional relay, between sibling terminal
// processes. Events name only the storage key that changed; receivers must
// re-read canonical state from the store, never trust a payload.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

type Kind string

const (
	CartChanged        Kind = "cart-changed"
	CashRequestChanged Kind = "cash-request-changed"
	StickyTableChanged Kind = "sticky-table-changed"
)

// Event is a change signal. Key is the storage key that changed (the exact
// per-table cart key for CartChanged); Origin identifies the publishing
// context so relayed events are not re-delivered to their own sender.
type Event struct {
	Kind   Kind   `json:"kind"`
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Relay forwards locally published events to sibling contexts. Implementations
// call Bus.Inject for events arriving from remote contexts.
type Relay interface {
	Forward(evt Event) error
}

type subscriber struct {
	kinds map[Kind]struct{} // nil means all kinds
	fn    func(Event)
}

type Bus struct {
	origin string

	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
	relay  Relay
}

func New() *Bus {
	return &Bus{
		origin: uuid.NewString(),
		subs:   make(map[int]subscriber),
	}
}

// Origin is this context's identity on the relay.
func (b *Bus) Origin() string { return b.origin }

// Subscribe registers fn for the given kinds, or for every kind when none are
// given. The returned function removes the subscription.
func (b *Bus) Subscribe(fn func(Event), kinds ...Kind) (unsubscribe func()) {
	var filter map[Kind]struct{}
	if len(kinds) > 0 {
		filter = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			filter[k] = struct{}{}
		}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscriber{kinds: filter, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to local subscribers and forwards it to sibling
// contexts when a relay is attached. Relay failures are the relay's problem;
// local delivery always happens first.
func (b *Bus) Publish(kind Kind, key string) {
	evt := Event{Kind: kind, Key: key, Origin: b.origin}
	b.deliver(evt)

	b.mu.RLock()
	relay := b.relay
	b.mu.RUnlock()
	if relay != nil {
		_ = relay.Forward(evt)
	}
}

// Inject delivers an event that arrived from a sibling context. Events that
// originated here are dropped so a context never hears its own relayed writes
// twice.
func (b *Bus) Inject(evt Event) {
	if evt.Origin == b.origin {
		return
	}
	b.deliver(evt)
}

func (b *Bus) AttachRelay(r Relay) {
	b.mu.Lock()
	b.relay = r
	b.mu.Unlock()
}

func (b *Bus) deliver(evt Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.kinds != nil {
			if _, ok := sub.kinds[evt.Kind]; !ok {
				continue
			}
		}
		fns = append(fns, sub.fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}
