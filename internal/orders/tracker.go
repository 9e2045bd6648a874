// Package orders reconciles the local cart against the server-confirmed
// unpaid orders for a table. The server is the source of truth; the tracker
// only caches the last successful fetch and replaces it in full.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/api"
	"github.com/Nemanja264/Servizo/internal/cart"
)

var (
	ErrNoTable            = errors.New("no table assigned")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrSubmissionInFlight = errors.New("an order submission is already in flight")
)

// Service is the slice of the server API the tracker needs.
type Service interface {
	UnpaidOrders(ctx context.Context, table int) ([]api.UnpaidOrder, error)
	CreateOrder(ctx context.Context, table int, lines []api.OrderLine) (string, error)
	PayOrder(ctx context.Context, orderID string) error
	PayTable(ctx context.Context, table int) error
}

type Tracker struct {
	svc    Service
	logger *zap.Logger

	mu     sync.Mutex
	cache  map[int][]api.UnpaidOrder
	inFlight map[int]bool
}

func NewTracker(svc Service, logger *zap.Logger) *Tracker {
	return &Tracker{
		svc:    svc,
		logger: logger,
		cache:  make(map[int][]api.UnpaidOrder),
		inFlight: make(map[int]bool),
	}
}

// Fetch replaces the cached unpaid list for the table with the server's. On
// failure the prior cache is kept untouched and the error surfaced; the
// operation is safe to retry.
func (t *Tracker) Fetch(ctx context.Context, table int) ([]api.UnpaidOrder, error) {
	if table <= 0 {
		return nil, ErrNoTable
	}
	fetched, err := t.svc.UnpaidOrders(ctx, table)
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		fetched = []api.UnpaidOrder{}
	}
	t.mu.Lock()
	t.cache[table] = fetched
	t.mu.Unlock()
	return fetched, nil
}

// Cached returns the last successfully fetched unpaid list for the table.
func (t *Tracker) Cached(table int) []api.UnpaidOrder {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cache[table]
}

// UnpaidCount feeds the badge counter.
func (t *Tracker) UnpaidCount(table int) int {
	return len(t.Cached(table))
}

// Submit sends the cart as a new order and returns its id. Lines are
// aggregated by item id first, since the cart may hold entries added at
// different times. An advisory busy flag rejects an overlapping submission
// for the same table from this context; duplicates slipping past it are the
// server's to reject. On success the caller clears the cart and re-fetches.
func (t *Tracker) Submit(ctx context.Context, table int, lines []cart.Line) (string, error) {
	if table <= 0 {
		return "", ErrNoTable
	}
	payload := Aggregate(lines)
	if len(payload) == 0 {
		return "", ErrEmptyCart
	}

	t.mu.Lock()
	if t.inFlight[table] {
		t.mu.Unlock()
		return "", ErrSubmissionInFlight
	}
	t.inFlight[table] = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.inFlight, table)
		t.mu.Unlock()
	}()

	id, err := t.svc.CreateOrder(ctx, table, payload)
	if err != nil {
		return "", err
	}
	t.logger.Info("order placed", zap.Int("table", table), zap.String("order", id))
	return id, nil
}

// PayAll settles every unpaid order for the table, then re-fetches so the
// cache never goes stale after a mutation.
func (t *Tracker) PayAll(ctx context.Context, table int) error {
	if table <= 0 {
		return ErrNoTable
	}
	if err := t.svc.PayTable(ctx, table); err != nil {
		return err
	}
	if _, err := t.Fetch(ctx, table); err != nil {
		return fmt.Errorf("paid, but refreshing unpaid orders failed: %w", err)
	}
	return nil
}

// PayOne settles a single order, then re-fetches the table's list.
func (t *Tracker) PayOne(ctx context.Context, table int, orderID string) error {
	if orderID == "" {
		return errors.New("order id is required")
	}
	if err := t.svc.PayOrder(ctx, orderID); err != nil {
		return err
	}
	if _, err := t.Fetch(ctx, table); err != nil {
		return fmt.Errorf("paid, but refreshing unpaid orders failed: %w", err)
	}
	return nil
}

// Aggregate coalesces cart lines into one submission entry per item id,
// summing quantities and keeping first-seen order. Lines without an id or a
// positive quantity are dropped.
func Aggregate(lines []cart.Line) []api.OrderLine {
	var out []api.OrderLine
	index := make(map[string]int)
	for _, line := range lines {
		if line.ID == "" || line.Qty <= 0 {
			continue
		}
		if i, ok := index[line.ID]; ok {
			out[i].Quantity += line.Qty
			continue
		}
		index[line.ID] = len(out)
		out = append(out, api.OrderLine{ID: line.ID, Quantity: line.Qty})
	}
	return out
}
