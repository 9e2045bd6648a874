package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/api"
	"github.com/Nemanja264/Servizo/internal/bus"
	"github.com/Nemanja264/Servizo/internal/cash"
	"github.com/Nemanja264/Servizo/internal/kv"
)

type fakeTables struct {
	mu      sync.Mutex
	rows    []api.TableSnapshot
	err     error
	block   chan struct{}
	fetches int
}

func (f *fakeTables) Tables(context.Context) ([]api.TableSnapshot, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	rows := make([]api.TableSnapshot, len(f.rows))
	copy(rows, f.rows)
	return rows, nil
}

func (f *fakeTables) set(rows []api.TableSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

func due(s string) api.Money {
	return api.Money{Decimal: decimal.RequireFromString(s)}
}

func newPoller(svc TablesService) (*Poller, *cash.Signaler) {
	signaler := cash.NewSignaler(kv.NewMemoryStore(), bus.New())
	return NewPoller(svc, signaler, time.Second, zap.NewNop()), signaler
}

func view(t *testing.T, p *Poller, id string) TableView {
	t.Helper()
	for _, v := range p.Snapshot() {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("table %s not in snapshot", id)
	return TableView{}
}

func TestStrictIncreaseFlagsUntilSelected(t *testing.T) {
	svc := &fakeTables{}
	p, _ := newPoller(svc)
	ctx := context.Background()

	// Cycle 1: table 3 owes nothing. The first cycle has no previous
	// snapshot, so nothing can be flagged yet.
	svc.set([]api.TableSnapshot{{ID: "t3", TableNumber: 3, AmountDue: due("0")}})
	p.Poll(ctx)
	if view(t, p, "t3").NewActivity {
		t.Fatal("first cycle must not flag")
	}

	// Cycle 2: amount due rose, the table is flagged.
	svc.set([]api.TableSnapshot{{ID: "t3", TableNumber: 3, AmountDue: due("12.50")}})
	p.Poll(ctx)
	if !view(t, p, "t3").NewActivity {
		t.Fatal("strict increase must flag the table")
	}

	// The flag is sticky across unchanged cycles.
	p.Poll(ctx)
	if !view(t, p, "t3").NewActivity {
		t.Fatal("flag must persist until selected")
	}

	p.Select("t3")
	if view(t, p, "t3").NewActivity {
		t.Fatal("selection must clear the flag")
	}

	// Cycle 3: unchanged amount keeps the flag cleared.
	p.Poll(ctx)
	if view(t, p, "t3").NewActivity {
		t.Fatal("unchanged amount must not re-flag")
	}
}

func TestDecreaseOrEqualNeverFlags(t *testing.T) {
	svc := &fakeTables{}
	p, _ := newPoller(svc)
	ctx := context.Background()

	svc.set([]api.TableSnapshot{{ID: "t1", TableNumber: 1, AmountDue: due("20")}})
	p.Poll(ctx)

	svc.set([]api.TableSnapshot{{ID: "t1", TableNumber: 1, AmountDue: due("5")}})
	p.Poll(ctx)
	if view(t, p, "t1").NewActivity {
		t.Fatal("a decrease must not flag")
	}

	p.Poll(ctx)
	if view(t, p, "t1").NewActivity {
		t.Fatal("an equal amount must not flag")
	}
}

func TestSnapshotSortedByTableNumber(t *testing.T) {
	svc := &fakeTables{}
	p, _ := newPoller(svc)

	svc.set([]api.TableSnapshot{
		{ID: "t9", TableNumber: 9, AmountDue: due("1")},
		{ID: "t2", TableNumber: 2, AmountDue: due("0")},
		{ID: "t5", TableNumber: 5, AmountDue: due("3")},
	})
	p.Poll(context.Background())

	views := p.Snapshot()
	if len(views) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(views))
	}
	if views[0].TableNumber != 2 || views[1].TableNumber != 5 || views[2].TableNumber != 9 {
		t.Fatalf("rows not sorted: %v", views)
	}
	if views[0].Busy || !views[1].Busy {
		t.Fatal("busy must follow amount_due > 0")
	}
}

func TestPollFailureKeepsPriorSnapshot(t *testing.T) {
	svc := &fakeTables{}
	p, _ := newPoller(svc)
	ctx := context.Background()

	svc.set([]api.TableSnapshot{{ID: "t1", TableNumber: 1, AmountDue: due("4")}})
	p.Poll(ctx)

	svc.mu.Lock()
	svc.err = errors.New("server down")
	svc.mu.Unlock()
	p.Poll(ctx)

	if len(p.Snapshot()) != 1 {
		t.Fatal("failed cycle must keep the prior snapshot")
	}
	if p.Err() == nil {
		t.Fatal("failure must be visible")
	}

	svc.mu.Lock()
	svc.err = nil
	svc.mu.Unlock()
	p.Poll(ctx)
	if p.Err() != nil {
		t.Fatal("error must clear on the next good cycle")
	}
}

func TestOverlappingPollIsNoOp(t *testing.T) {
	svc := &fakeTables{block: make(chan struct{})}
	p, _ := newPoller(svc)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		p.Poll(ctx)
		close(done)
	}()

	// Wait for the first cycle to be in flight.
	for {
		p.mu.Lock()
		fetching := p.fetching
		p.mu.Unlock()
		if fetching {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// This tick must skip its fetch entirely.
	p.Poll(ctx)
	close(svc.block)
	<-done

	svc.mu.Lock()
	fetches := svc.fetches
	svc.mu.Unlock()
	if fetches != 1 {
		t.Fatalf("expected 1 fetch, got %d", fetches)
	}
}

func TestSelectAcknowledgesCashRequest(t *testing.T) {
	svc := &fakeTables{}
	p, signaler := newPoller(svc)
	ctx := context.Background()

	svc.set([]api.TableSnapshot{{ID: "t9", TableNumber: 9, AmountDue: due("7")}})
	p.Poll(ctx)

	signaler.RequestForTable(9)
	if !view(t, p, "t9").CashRequested {
		t.Fatal("snapshot must surface the cash request")
	}

	p.Select("t9")
	if view(t, p, "t9").CashRequested {
		t.Fatal("selection must acknowledge the cash request")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	svc := &fakeTables{}
	svc.set([]api.TableSnapshot{{ID: "t1", TableNumber: 1, AmountDue: due("0")}})
	p, _ := newPoller(svc)

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for {
		svc.mu.Lock()
		fetched := svc.fetches > 0
		svc.mu.Unlock()
		if fetched {
			break
		}
		select {
		case <-deadline:
			t.Fatal("poller never fetched after Start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	p.Stop()
	svc.mu.Lock()
	after := svc.fetches
	svc.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	svc.mu.Lock()
	final := svc.fetches
	svc.mu.Unlock()
	if final != after {
		t.Fatalf("poller kept fetching after Stop: %d -> %d", after, final)
	}
}
