// Package cash carries the "call the waiter for cash" intent from guest
// contexts to the staff dashboard. The signal is a table-number flag in the
// shared client-local store: best-effort, unauthenticated, no server-side
// record and no expiry. A cleared store loses pending requests.
package cash

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/Nemanja264/Servizo/internal/bus"
	"github.com/Nemanja264/Servizo/internal/kv"
)

// RequestsKey is the shared map of table number -> requested flag.
const RequestsKey = "cash_payment_requests"

type Signaler struct {
	store kv.Store
	bus   *bus.Bus
}

func NewSignaler(store kv.Store, b *bus.Bus) *Signaler {
	return &Signaler{store: store, bus: b}
}

// RequestForTable flags the table. Repeated requests are no-ops: the flag is
// already set and no further notification is raised.
func (s *Signaler) RequestForTable(table int) {
	if table <= 0 {
		return
	}
	requests := s.read()
	key := strconv.Itoa(table)
	if requests[key] {
		return
	}
	requests[key] = true
	s.write(requests)
}

// RequestForOrder flags the order's table. The dashboard highlight is per
// table, so an order-level request collapses onto its table.
func (s *Signaler) RequestForOrder(orderID string, table int) {
	if orderID == "" {
		return
	}
	s.RequestForTable(table)
}

// Requested reports whether the table has an outstanding cash request.
func (s *Signaler) Requested(table int) bool {
	return s.read()[strconv.Itoa(table)]
}

// Tables lists every table with an outstanding request, ascending.
func (s *Signaler) Tables() []int {
	var tables []int
	for key, flagged := range s.read() {
		if !flagged {
			continue
		}
		n, err := strconv.Atoi(key)
		if err != nil || n <= 0 {
			continue
		}
		tables = append(tables, n)
	}
	sort.Ints(tables)
	return tables
}

// Acknowledge clears the table's request. Staff selecting the table on the
// dashboard is the only way a request goes away.
func (s *Signaler) Acknowledge(table int) {
	requests := s.read()
	key := strconv.Itoa(table)
	if _, ok := requests[key]; !ok {
		return
	}
	delete(requests, key)
	s.write(requests)
}

func (s *Signaler) read() map[string]bool {
	raw, ok := s.store.Get(RequestsKey)
	if !ok {
		return map[string]bool{}
	}
	requests := map[string]bool{}
	if err := json.Unmarshal([]byte(raw), &requests); err != nil {
		return map[string]bool{}
	}
	return requests
}

func (s *Signaler) write(requests map[string]bool) {
	raw, err := json.Marshal(requests)
	if err != nil {
		return
	}
	s.store.Set(RequestsKey, string(raw))
	s.bus.Publish(bus.CashRequestChanged, RequestsKey)
}
