// Package dashboard drives the staff view: a fixed-interval poll of every
// table's outstanding balance, diffed cycle over cycle to raise per-table
// new-activity flags, merged at presentation time with the client-local
// cash-request signals.
package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/api"
	"github.com/Nemanja264/Servizo/internal/cash"
)

// TablesService is the slice of the server API the poller needs.
type TablesService interface {
	Tables(ctx context.Context) ([]api.TableSnapshot, error)
}

// TableView is one dashboard row: the server snapshot merged with the local
// notification state.
type TableView struct {
	api.TableSnapshot
	Busy          bool `json:"busy"`
	NewActivity   bool `json:"new_activity"`
	CashRequested bool `json:"cash_requested"`
}

type Poller struct {
	svc      TablesService
	signaler *cash.Signaler
	logger   *zap.Logger
	interval time.Duration

	mu       sync.Mutex
	tables   []api.TableSnapshot
	prev     map[string]api.TableSnapshot
	activity map[string]bool
	fetching bool
	lastErr  error

	runMu  sync.Mutex
	cancel context.CancelFunc
}

func NewPoller(svc TablesService, signaler *cash.Signaler, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		svc:      svc,
		signaler: signaler,
		logger:   logger,
		interval: interval,
		activity: make(map[string]bool),
	}
}

// Start polls immediately and then on every interval tick until Stop or ctx
// cancellation. The ticker never pauses for a slow fetch; overlapping ticks
// are absorbed by the in-flight guard inside Poll.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go func() {
		p.Poll(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				go p.Poll(ctx)
			}
		}
	}()
}

// Stop halts polling. Activity flags survive a stop/start pair; only
// selection clears them.
func (p *Poller) Stop() {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Poll runs one cycle: fetch all snapshots, sort by table number, diff each
// table's amount_due against the previous cycle and flag strict increases.
// A cycle that fires while another fetch is outstanding is a no-op for this
// tick. The previous-snapshot reference is replaced wholesale every cycle.
func (p *Poller) Poll(ctx context.Context) {
	p.mu.Lock()
	if p.fetching {
		p.mu.Unlock()
		return
	}
	p.fetching = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.fetching = false
		p.mu.Unlock()
	}()

	fetched, err := p.svc.Tables(ctx)
	if err != nil {
		// Prior snapshot stays; the dashboard shows the error until the next
		// good cycle.
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		p.logger.Warn("table poll failed", zap.Error(err))
		return
	}

	sort.Slice(fetched, func(i, j int) bool {
		return fetched[i].TableNumber < fetched[j].TableNumber
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.prev != nil {
		for _, table := range fetched {
			before, ok := p.prev[table.ID]
			if ok && table.AmountDue.GreaterThan(before.AmountDue.Decimal) {
				p.activity[table.ID] = true
			}
		}
	}

	next := make(map[string]api.TableSnapshot, len(fetched))
	for _, table := range fetched {
		next[table.ID] = table
	}
	p.prev = next
	p.tables = fetched
	p.lastErr = nil
}

// Snapshot merges the latest poll with activity flags and cash requests.
// Cash state is read from the shared store here, at presentation time, not
// carried inside the poll cycle.
func (p *Poller) Snapshot() []TableView {
	p.mu.Lock()
	tables := make([]api.TableSnapshot, len(p.tables))
	copy(tables, p.tables)
	activity := make(map[string]bool, len(p.activity))
	for id, flagged := range p.activity {
		activity[id] = flagged
	}
	p.mu.Unlock()

	views := make([]TableView, 0, len(tables))
	for _, table := range tables {
		views = append(views, TableView{
			TableSnapshot: table,
			Busy:          table.AmountDue.IsPositive(),
			NewActivity:   activity[table.ID],
			CashRequested: p.signaler.Requested(table.TableNumber),
		})
	}
	return views
}

// Select is the staff acknowledgement: it clears the table's sticky activity
// flag and its cash request. Nothing else ever clears them.
func (p *Poller) Select(tableID string) {
	p.mu.Lock()
	delete(p.activity, tableID)
	table, ok := p.prev[tableID]
	p.mu.Unlock()

	if ok {
		p.signaler.Acknowledge(table.TableNumber)
	}
}

// Err reports the most recent cycle failure, nil after a good cycle.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
