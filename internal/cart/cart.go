// Package cart is the per-table local cache of not-yet-submitted order lines.
// Carts live in the shared client-local store under one key per table, so
// every context bound to the same table observes the same cart. Writes always
// replace the full sequence for the table; there is no merging of concurrent
// writers (last write wins, an accepted trade-off for tables driven by a
// handful of humans).
package cart

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Nemanja264/Servizo/internal/bus"
	"github.com/Nemanja264/Servizo/internal/kv"
)

// KeyPrefix scopes cart keys in the shared store.
const KeyPrefix = "order-cart:"

const (
	minQty = 1
	maxQty = 99
)

// Line is one cart entry. At most one line per item ID exists within a cart;
// Qty stays within [1,99].
type Line struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

// Item is the menu-item identity handed to AddItem.
type Item struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Key returns the storage key for a table's cart, or "" for an invalid table.
func Key(table int) string {
	if table <= 0 {
		return ""
	}
	return KeyPrefix + strconv.Itoa(table)
}

// Store reads and mutates carts. Every mutation rewrites the table's full
// line sequence and raises cart-changed with the exact key that changed.
type Store struct {
	store kv.Store
	bus   *bus.Bus
}

func NewStore(store kv.Store, b *bus.Bus) *Store {
	return &Store{store: store, bus: b}
}

// Read returns the table's current lines. A missing table, a missing key or
// corrupt persisted data all read as an empty cart; Read never fails.
func (s *Store) Read(table int) []Line {
	key := Key(table)
	if key == "" {
		return nil
	}
	raw, ok := s.store.Get(key)
	if !ok {
		return nil
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil
	}
	return lines
}

// Write replaces the table's cart wholesale and always notifies, even when
// the new sequence equals the old one.
func (s *Store) Write(table int, lines []Line) {
	key := Key(table)
	if key == "" {
		return
	}
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return
	}
	s.store.Set(key, string(raw))
	s.bus.Publish(bus.CartChanged, key)
}

// AddItem merges the item into the table's cart: an existing line's quantity
// grows by qty (both the added and the resulting quantity clamped to [1,99])
// and its name and price are refreshed from the item. Returns false when the
// table or the item identity is missing; callers surface that as feedback.
func (s *Store) AddItem(table int, item Item, qty int) bool {
	if table <= 0 || strings.TrimSpace(item.ID) == "" {
		return false
	}
	addQty := clamp(qty, minQty, maxQty)

	lines := s.Read(table)
	merged := false
	for i := range lines {
		if lines[i].ID == item.ID {
			lines[i].Name = item.Name
			lines[i].Price = item.Price
			lines[i].Qty = clamp(lines[i].Qty+addQty, minQty, maxQty)
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, Line{ID: item.ID, Name: item.Name, Price: item.Price, Qty: addQty})
	}
	s.Write(table, lines)
	return true
}

// ChangeQuantity shifts the line's quantity by delta, clamped to [0,99]; a
// resulting quantity of zero removes the line.
func (s *Store) ChangeQuantity(table int, id string, delta int) {
	if Key(table) == "" {
		return
	}
	lines := s.Read(table)
	out := lines[:0]
	for _, line := range lines {
		if line.ID == id {
			line.Qty = clamp(line.Qty+delta, 0, maxQty)
		}
		if line.Qty > 0 {
			out = append(out, line)
		}
	}
	s.Write(table, out)
}

func (s *Store) RemoveItem(table int, id string) {
	if Key(table) == "" {
		return
	}
	lines := s.Read(table)
	out := lines[:0]
	for _, line := range lines {
		if line.ID != id {
			out = append(out, line)
		}
	}
	s.Write(table, out)
}

// Clear empties the cart after a successful submission. The key stays in
// place holding an empty sequence.
func (s *Store) Clear(table int) {
	if Key(table) == "" {
		return
	}
	s.Write(table, []Line{})
}

// SeedIfEmpty applies carried-over lines only when the table's cart is
// currently empty, so resuming a deep link never clobbers an in-progress
// cart. Returns whether the seed was applied.
func (s *Store) SeedIfEmpty(table int, lines []Line) bool {
	if Key(table) == "" {
		return false
	}
	normalized := normalize(lines)
	if len(normalized) == 0 {
		return false
	}
	if len(s.Read(table)) > 0 {
		return false
	}
	s.Write(table, normalized)
	return true
}

// Total recomputes the cart total. It is never stored.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return total
}

// TotalQty is the badge count: the summed quantity across all lines.
func TotalQty(lines []Line) int {
	n := 0
	for _, line := range lines {
		n += line.Qty
	}
	return n
}

// Tables lists every table number with a cart key in the store, ascending.
// Used as the fallback table binding when no sticky value exists.
func Tables(store kv.Store) []int {
	var tables []int
	for _, key := range store.Keys() {
		rest, ok := strings.CutPrefix(key, KeyPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			continue
		}
		tables = append(tables, n)
	}
	sort.Ints(tables)
	return tables
}

// EncodePayload packs lines into the base64(JSON) blob carried on a cart
// deep link, and DecodePayload unpacks it. A blob that does not decode to a
// line sequence yields nil rather than an error surface: carry-over is
// best-effort.
func EncodePayload(lines []Line) string {
	raw, err := json.Marshal(lines)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func DecodePayload(payload string) []Line {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil
	}
	return lines
}

// normalize drops lines without an identity, clamps quantities and merges
// duplicate IDs so seeded data obeys the same invariants operations keep.
func normalize(lines []Line) []Line {
	var out []Line
	index := make(map[string]int)
	for _, line := range lines {
		id := strings.TrimSpace(line.ID)
		if id == "" || line.Qty <= 0 {
			continue
		}
		if i, ok := index[id]; ok {
			out[i].Qty = clamp(out[i].Qty+line.Qty, minQty, maxQty)
			continue
		}
		line.ID = id
		line.Qty = clamp(line.Qty, minQty, maxQty)
		index[id] = len(out)
		out = append(out, line)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
