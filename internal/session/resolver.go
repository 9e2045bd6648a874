// Package session binds a terminal context to a physical table. The binding
// is sticky: the last explicitly observed table number is persisted and reused
// until another explicit value overwrites it.
package session

import (
	"strconv"
	"strings"

	"github.com/Nemanja264/Servizo/internal/bus"
	"github.com/Nemanja264/Servizo/internal/kv"
)

// StickyKey is the single per-installation scalar holding the last table.
const StickyKey = "last-table"

type Resolver struct {
	store kv.Store
	bus   *bus.Bus
}

func NewResolver(store kv.Store, b *bus.Bus) *Resolver {
	return &Resolver{store: store, bus: b}
}

// Resolve returns the table this context is bound to. An explicit value that
// parses to a positive integer wins, becomes the new sticky value and raises
// sticky-table-changed; anything else (empty, non-numeric, zero, negative)
// falls back to the sticky value. Never treats bad input as table zero.
func (r *Resolver) Resolve(explicit string) (int, bool) {
	if n, ok := parseTableNumber(explicit); ok {
		r.setSticky(n)
		return n, true
	}
	return r.Sticky()
}

// Sticky reads the persisted table binding without changing it.
func (r *Resolver) Sticky() (int, bool) {
	raw, ok := r.store.Get(StickyKey)
	if !ok {
		return 0, false
	}
	return parseTableNumber(raw)
}

// Logout wipes the installation's local state. The sticky table survives the
// clear: the terminal stays bolted to its table even when nobody is signed in.
func (r *Resolver) Logout() {
	r.store.Clear(StickyKey)
}

func (r *Resolver) setSticky(n int) {
	// Raised even when the value is unchanged, matching the cart-store rule
	// that every observed write notifies.
	r.store.Set(StickyKey, strconv.Itoa(n))
	r.bus.Publish(bus.StickyTableChanged, StickyKey)
}

func parseTableNumber(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
